package experiment

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/raharth/gomatch/learner"
)

// Checkpointer periodically snapshots a learner's history to disk
// with gob, writing each snapshot to a separate enumerated file.
type Checkpointer struct {
	interval int
	filename func() string
	epochs   int
}

// NewCheckpointer returns a Checkpointer saving every interval
// epochs. Files are named name1.bin, name2.bin, ... under the given
// prefix.
func NewCheckpointer(interval int, name string) (*Checkpointer, error) {
	if interval < 1 {
		return nil, fmt.Errorf("newcheckpointer: interval must be > 0, "+
			"got %v", interval)
	}
	return &Checkpointer{
		interval: interval,
		filename: FilenameEnumerator(0, name, ".bin"),
	}, nil
}

// OnEpochEnd implements the Callback interface.
func (c *Checkpointer) OnEpochEnd(l learner.Learner,
	_ learner.EpochResult) error {
	c.epochs++
	if c.epochs%c.interval != 0 {
		return nil
	}
	return Save(c.filename(), l.History())
}

// Save gob-encodes a history into a file.
func Save(filename string, h *learner.History) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(h); err != nil {
		return fmt.Errorf("save: could not encode history: %v", err)
	}
	return nil
}

// LoadHistory loads a history saved by a Checkpointer.
func LoadHistory(filename string) (*learner.History, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadhistory: could not open checkpoint "+
			"file: %v", err)
	}
	defer file.Close()

	var h learner.History
	if err := gob.NewDecoder(file).Decode(&h); err != nil {
		return nil, fmt.Errorf("loadhistory: could not decode history: %v",
			err)
	}
	return &h, nil
}

// fileEnumerator enumerates filenames
type fileEnumerator struct {
	i         int
	name      string
	extension string
}

func (f *fileEnumerator) filename() string {
	f.i++
	return fmt.Sprintf("%v%v%v", f.name, f.i, f.extension)
}

// FilenameEnumerator returns a function producing filenames with a
// counter suffix that increments on every call. The name parameter is
// the full filename with its path, the extension parameter the file
// extension including the dot.
func FilenameEnumerator(start int, name, extension string) func() string {
	enum := fileEnumerator{i: start, name: name, extension: extension}
	return enum.filename
}
