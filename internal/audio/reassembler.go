package audio

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrFragmentLimit is returned when a pending utterance exceeds its fragment or byte cap.
var ErrFragmentLimit = errors.New("pending utterance exceeds fragment limit")

// Reassembler collects the out-of-order fragments of one utterance for a single
// session and joins them in key order when the utterance is final.
type Reassembler struct {
	fragments map[string]string
	size      int

	maxFragments int
	maxBytes     int

	lastUpdate time.Time
	total      uint64
	dropped    uint64

	mu sync.Mutex
}

// ReassemblerStats represents reassembler statistics for monitoring
type ReassemblerStats struct {
	PendingFragments int       `json:"pending_fragments"`
	PendingBytes     int       `json:"pending_bytes"`
	TotalFragments   uint64    `json:"total_fragments"`
	DroppedUtterance uint64    `json:"dropped_utterances"`
	LastUpdate       time.Time `json:"last_update"`
}

// NewReassembler creates a reassembler. A zero limit disables that cap.
func NewReassembler(maxFragments, maxBytes int) *Reassembler {
	return &Reassembler{
		fragments:    make(map[string]string),
		maxFragments: maxFragments,
		maxBytes:     maxBytes,
		lastUpdate:   time.Now(),
	}
}

// Accept stores a fragment under key. An empty key is replaced by chunk_<n>
// where n is the number of fragments already buffered. Empty fragments are
// ignored. A repeated key overwrites the earlier fragment.
//
// When a cap is exceeded the pending utterance is discarded and ErrFragmentLimit
// is returned.
func (r *Reassembler) Accept(key, fragment string) error {
	if fragment == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if key == "" {
		key = fmt.Sprintf("chunk_%d", len(r.fragments))
	}

	size := r.size + len(fragment)
	count := len(r.fragments)
	if prev, ok := r.fragments[key]; ok {
		size -= len(prev)
	} else {
		count++
	}

	if (r.maxFragments > 0 && count > r.maxFragments) || (r.maxBytes > 0 && size > r.maxBytes) {
		r.reset()
		r.dropped++
		return fmt.Errorf("%w: %d fragments, %d bytes", ErrFragmentLimit, count, size)
	}

	r.fragments[key] = fragment
	r.size = size
	r.total++
	r.lastUpdate = time.Now()

	return nil
}

// Finalize returns the buffered fragments joined in key order with whitespace
// removed, and clears the buffer. A second call without new fragments returns
// an empty slice.
func (r *Reassembler) Finalize() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer r.reset()

	if len(r.fragments) == 0 {
		return []byte{}
	}

	keys := make([]string, 0, len(r.fragments))
	for k := range r.fragments {
		keys = append(keys, k)
	}
	sortFragmentKeys(keys)

	var sb strings.Builder
	sb.Grow(r.size)
	for _, k := range keys {
		sb.WriteString(r.fragments[k])
	}

	return stripWhitespace(sb.String())
}

// Pending returns the number of buffered fragments.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fragments)
}

// Reset discards the pending utterance.
func (r *Reassembler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// GetStats returns current reassembler statistics
func (r *Reassembler) GetStats() ReassemblerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return ReassemblerStats{
		PendingFragments: len(r.fragments),
		PendingBytes:     r.size,
		TotalFragments:   r.total,
		DroppedUtterance: r.dropped,
		LastUpdate:       r.lastUpdate,
	}
}

func (r *Reassembler) reset() {
	if len(r.fragments) > 0 {
		r.fragments = make(map[string]string)
	}
	r.size = 0
}

// FragmentSequence extracts the integer suffix of a fragment key such as
// "chunk_12". The second return value is false for malformed keys.
func FragmentSequence(key string) (int, bool) {
	suffix := key
	if i := strings.LastIndexByte(key, '_'); i >= 0 {
		suffix = key[i+1:]
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// sortFragmentKeys orders keys by sequence; malformed keys go last, ordered by key.
func sortFragmentKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		si, oki := FragmentSequence(keys[i])
		sj, okj := FragmentSequence(keys[j])
		switch {
		case oki && okj:
			if si != sj {
				return si < sj
			}
			return keys[i] < keys[j]
		case oki != okj:
			return oki
		default:
			return keys[i] < keys[j]
		}
	})
}

func stripWhitespace(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\n', '\r', '\t':
			continue
		}
		out = append(out, s[i])
	}
	return out
}
