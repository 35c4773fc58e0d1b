package tablestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

var (
	// ErrIndexOutOfRange is returned for element indices at or beyond the
	// vector length.
	ErrIndexOutOfRange = errors.New("tablestore: index out of range")

	// ErrEmptyVector is returned by Pop on an empty vector.
	ErrEmptyVector = errors.New("tablestore: empty vector")
)

// Vector is a persistent, append-capable sequence of field elements.
// Elements live under per-index keys and the length under its own key, so
// random access never deserializes the whole sequence. Vectors sharing a
// store are kept apart by name.
type Vector struct {
	store  *Store
	prefix []byte

	mu     sync.Mutex
	length uint64
}

// OpenVector returns the named vector, restoring its length from the
// store. A name never written before yields an empty vector.
func OpenVector(s *Store, name string) (*Vector, error) {
	v := &Vector{
		store:  s,
		prefix: []byte("vec/" + name + "/"),
	}

	data, err := s.get(v.lengthKey())
	if errors.Is(err, ErrNotFound) {
		return v, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) != 8 {
		return nil, fmt.Errorf("tablestore: vector %q has malformed length record", name)
	}
	v.length = binary.BigEndian.Uint64(data)
	return v, nil
}

func (v *Vector) lengthKey() []byte {
	return append(append([]byte{}, v.prefix...), "len"...)
}

func (v *Vector) elementKey(index uint64) []byte {
	key := append(append([]byte{}, v.prefix...), "e/"...)
	return binary.BigEndian.AppendUint64(key, index)
}

func (v *Vector) putLength(batch *leveldb.Batch, length uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], length)
	batch.Put(v.lengthKey(), buf[:])
}

// Len returns the number of stored elements.
func (v *Vector) Len() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.length
}

// IsEmpty reports whether the vector holds no elements.
func (v *Vector) IsEmpty() bool {
	return v.Len() == 0
}

// Get returns the element at the given index.
func (v *Vector) Get(index uint64) (field.Element, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if index >= v.length {
		return field.Zero, fmt.Errorf("%w: %d with length %d", ErrIndexOutOfRange, index, v.length)
	}
	data, err := v.store.get(v.elementKey(index))
	if err != nil {
		return field.Zero, err
	}
	return field.FromBytes(data), nil
}

// Set overwrites the element at the given index.
func (v *Vector) Set(index uint64, value field.Element) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if index >= v.length {
		return fmt.Errorf("%w: %d with length %d", ErrIndexOutOfRange, index, v.length)
	}
	return v.store.put(v.elementKey(index), value.Bytes())
}

// Update is one element assignment in a SetBatch call.
type Update struct {
	Index uint64
	Value field.Element
}

// SetBatch applies all assignments in a single database write, so either
// all of them or none of them land.
func (v *Vector) SetBatch(updates []Update) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	batch := new(leveldb.Batch)
	for _, u := range updates {
		if u.Index >= v.length {
			return fmt.Errorf("%w: %d with length %d", ErrIndexOutOfRange, u.Index, v.length)
		}
		batch.Put(v.elementKey(u.Index), u.Value.Bytes())
	}
	return v.store.write(batch)
}

// Push appends an element. The element and the updated length are written
// in one batch.
func (v *Vector) Push(value field.Element) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	batch := new(leveldb.Batch)
	batch.Put(v.elementKey(v.length), value.Bytes())
	v.putLength(batch, v.length+1)
	if err := v.store.write(batch); err != nil {
		return err
	}
	v.length++
	return nil
}

// Pop removes and returns the last element.
func (v *Vector) Pop() (field.Element, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.length == 0 {
		return field.Zero, ErrEmptyVector
	}
	last := v.length - 1
	data, err := v.store.get(v.elementKey(last))
	if err != nil {
		return field.Zero, err
	}

	batch := new(leveldb.Batch)
	batch.Delete(v.elementKey(last))
	v.putLength(batch, last)
	if err := v.store.write(batch); err != nil {
		return field.Zero, err
	}
	v.length = last
	return field.FromBytes(data), nil
}

// PushAll appends all elements in one batch write.
func (v *Vector) PushAll(values []field.Element) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	batch := new(leveldb.Batch)
	for i, value := range values {
		batch.Put(v.elementKey(v.length+uint64(i)), value.Bytes())
	}
	v.putLength(batch, v.length+uint64(len(values)))
	if err := v.store.write(batch); err != nil {
		return err
	}
	v.length += uint64(len(values))
	return nil
}
