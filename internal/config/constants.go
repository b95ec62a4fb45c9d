package config

const (
	// DefaultDatabasePath is the default path for the sqlite database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultStoragePath is where uploaded PDFs and covers are kept by the local store
	DefaultStoragePath = "./uploads"

	// DefaultUploadMaxBytes bounds multipart uploads (50 MiB)
	DefaultUploadMaxBytes = 50 << 20
)
