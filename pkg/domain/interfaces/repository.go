package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Insight() InsightRepository

	Close() error
}
