package session

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the persistence port for mirrored session state
type Store interface {
	Load(userID int64) (State, bool, error)
	Save(userID int64, state State) error
	Clear(userID int64) error
	Close() error
}

var sessionBucket = []byte("sessions")

// BoltStore mirrors session state into a local bbolt file, one record per
// user id
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open session store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init session store")
	}
	return &BoltStore{db: db}, nil
}

func storeKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

func (s *BoltStore) Load(userID int64) (State, bool, error) {
	var state State
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get(storeKey(userID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &state)
	})
	if err != nil {
		return State{}, false, errors.Wrap(err, "load session state")
	}
	return state, found, nil
}

func (s *BoltStore) Save(userID int64, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "encode session state")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(storeKey(userID), data)
	})
}

func (s *BoltStore) Clear(userID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(storeKey(userID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
