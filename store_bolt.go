package laptimes

import (
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	sessionsBucketName  = []byte("sessions")
	mappingBucketName   = []byte("mapping")
	trackMapsBucketName = []byte("track_maps")

	mappingKey = []byte("mapping.csv")
)

// BoltStore keeps sessions, the mapping and track maps in a single bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: time.Second * 5})

	if err != nil {
		return nil, errors.Wrapf(err, "laptimes: could not open bolt database %s", path)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{sessionsBucketName, mappingBucketName, trackMapsBucketName} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, errorGroup(errors.Wrap(err, "laptimes: could not create buckets"), db.Close())
	}

	return &BoltStore{db: db}, nil
}

func (bs *BoltStore) Close() error {
	return bs.db.Close()
}

func (bs *BoltStore) put(bucket, key, data []byte) error {
	return bs.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
}

// get returns a copy of the value, as bbolt values are only valid inside the transaction.
func (bs *BoltStore) get(bucket, key []byte, notFound error) ([]byte, error) {
	var out []byte

	err := bs.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)

		if data == nil {
			return notFound
		}

		out = append([]byte(nil), data...)

		return nil
	})

	return out, err
}

func (bs *BoltStore) keys(bucket []byte) ([]string, error) {
	var keys []string

	err := bs.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})

	return sortedNames(keys), err
}

func (bs *BoltStore) SaveSession(name string, data []byte) error {
	name, err := SanitiseSessionName(name)

	if err != nil {
		return err
	}

	return bs.put(sessionsBucketName, []byte(name), data)
}

func (bs *BoltStore) LoadSession(name string) ([]byte, error) {
	name, err := SanitiseSessionName(name)

	if err != nil {
		return nil, err
	}

	return bs.get(sessionsBucketName, []byte(name), ErrSessionNotFound)
}

func (bs *BoltStore) ListSessions() ([]string, error) {
	return bs.keys(sessionsBucketName)
}

func (bs *BoltStore) DeleteSession(name string) error {
	name, err := SanitiseSessionName(name)

	if err != nil {
		return err
	}

	return bs.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sessionsBucketName)

		if bucket.Get([]byte(name)) == nil {
			return ErrSessionNotFound
		}

		return bucket.Delete([]byte(name))
	})
}

func (bs *BoltStore) LoadMapping() ([]byte, error) {
	return bs.get(mappingBucketName, mappingKey, ErrMappingNotFound)
}

func (bs *BoltStore) SaveMapping(data []byte) error {
	return bs.put(mappingBucketName, mappingKey, data)
}

func (bs *BoltStore) ListTrackMaps() ([]string, error) {
	return bs.keys(trackMapsBucketName)
}

func (bs *BoltStore) LoadTrackMap(name string) ([]byte, error) {
	name, err := sanitiseTrackMapName(name)

	if err != nil {
		return nil, err
	}

	return bs.get(trackMapsBucketName, []byte(name), ErrTrackMapNotFound)
}

func (bs *BoltStore) SaveTrackMap(name string, data []byte) error {
	name, err := sanitiseTrackMapName(name)

	if err != nil {
		return err
	}

	return bs.put(trackMapsBucketName, []byte(name), data)
}
