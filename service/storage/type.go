package storage

// IService takes ownership of a file written by the pipeline and returns
// where it ended up.
type IService interface {
	StoreFile(fileName string) (string, error)
}
