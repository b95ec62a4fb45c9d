package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/config"
)

func TestSetup(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	Setup(config.Logging{Level: "debug", Format: "json"})
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	_, isJSON := log.StandardLogger().Formatter.(*log.JSONFormatter)
	assert.True(t, isJSON)

	Setup(config.Logging{Level: "nonsense", Format: "text"})
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLevel("debug"))
	assert.Equal(t, logger.Warn, gormLevel("info"))
	assert.Equal(t, logger.Error, gormLevel("error"))
}

func TestFieldsFromParams(t *testing.T) {
	fields := fieldsFromParams([]any{"queue", "delete_book_assets", "id", "abc", 42})
	assert.Equal(t, log.Fields{"queue": "delete_book_assets", "id": "abc"}, fields)
}
