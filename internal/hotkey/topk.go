package hotkey

// Item is a key together with its estimated access count.
type Item struct {
	Key   string `json:"key"`
	Count uint32 `json:"count"`
}

// AddResult describes the outcome of recording an access.
type AddResult struct {
	// Key is the key that was recorded.
	Key string
	// ExpelledKey is the key displaced from the hot set, empty if none was.
	ExpelledKey string
	// Hot reports whether Key is currently one of the K most frequent keys.
	Hot bool
}

// TopK tracks the approximate K most frequently accessed keys of a stream.
type TopK interface {
	// Add records increment accesses of key. A zero increment records
	// nothing and only reports whether key is in the hot set.
	Add(key string, increment uint32) AddResult

	// List returns the current hot set ordered by descending count.
	List() []Item

	// Expelled returns a stream of keys displaced from the hot set.
	// Notifications are best effort: when nobody drains the stream the
	// oldest pending notifications are dropped.
	Expelled() <-chan Item

	// Fading halves every count tracked by the detector.
	Fading()

	// Total returns the (decayed) number of accesses recorded so far.
	Total() uint64
}
