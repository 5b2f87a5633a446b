package msgstore

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/valyala/fasttemplate"
)

var ErrNotFound = errors.New("not found")

type message struct {
	template *fasttemplate.Template
	text     string
}

func (m *message) UnmarshalJSON(data []byte) error {
	var text string
	err := json.Unmarshal(data, &text)
	if err != nil {
		return err
	}
	m.text = text
	m.template, err = fasttemplate.NewTemplate(text, "{{", "}}")
	return err
}

// Store holds the user-facing message templates in two layers: the defaults
// embedded in the binary and an optional live-editable override file. Lookups
// check the override first, so an id missing from the file still resolves.
type Store struct {
	mu       *sync.RWMutex
	defaults map[string]*message // map[message_id]message
	override map[string]*message
}

func New() *Store {
	return &Store{
		mu: &sync.RWMutex{},
	}
}

// LoadBytes replaces the default templates with the ones decoded from data.
func (s *Store) LoadBytes(data []byte) error {
	msgs, err := decode(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = msgs
	return nil
}

// Load replaces the override templates with the ones from the file at path.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read messages file")
	}
	msgs, err := decode(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = msgs
	return nil
}

func decode(data []byte) (map[string]*message, error) {
	var msgs map[string]*message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return msgs, nil
}

func (s *Store) Get(id string) (string, error) {
	msg, ok := s.get(id)
	if !ok {
		return "", ErrNotFound
	}
	return msg.text, nil
}

func (s *Store) GetWithArgs(id string, args map[string]string) (string, error) {
	msg, ok := s.get(id)
	if !ok {
		return "", ErrNotFound
	}
	return msg.template.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		value, ok := args[tag]
		if !ok {
			return 0, fmt.Errorf("missing argument %s", tag)
		}
		return w.Write([]byte(value))
	})
}

func (s *Store) get(id string) (*message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if msg, ok := s.override[id]; ok {
		return msg, true
	}
	msg, ok := s.defaults[id]
	return msg, ok
}

// Watcher reloads a message file while the bot is running.
type Watcher struct {
	stop chan struct{}
	done chan error
}

// Watch loads the file at path as the override layer and reloads it on
// every write. Close the returned watcher to stop.
func (s *Store) Watch(path string) (*Watcher, error) {
	if err := s.Load(path); err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := fsWatcher.Add(path); err != nil {
		return nil, errors.Wrap(err, "watch messages file")
	}
	stop := make(chan struct{})
	done := make(chan error)
	go func() {
		for {
			select {
			case event := <-fsWatcher.Events:
				if event.Op&fsnotify.Write == fsnotify.Write {
					if err := s.Load(path); err != nil {
						log.Println(errors.Wrap(err, "reload messages"))
					}
				}
			case err := <-fsWatcher.Errors:
				log.Println(errors.Wrap(err, "watch messages"))
			case <-stop:
				done <- fsWatcher.Close()
				return
			}
		}
	}()
	return &Watcher{stop: stop, done: done}, nil
}

func (w *Watcher) Close() error {
	close(w.stop)
	return <-w.done
}
