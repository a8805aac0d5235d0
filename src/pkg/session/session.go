/*
Package session keeps uploaded files in memory between HTTP requests.

A session holds the raw records of one file, the field map in use and the
rows ingested with it. Uploading again replaces all of it; nothing is merged.
*/
package session

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"invoice-reminder/src/pkg/ingest"
	"invoice-reminder/src/pkg/mapping"
)

// Upload is a parsed file before it is stored.
type Upload struct {
	FileName string
	Headers  []string
	FieldMap mapping.FieldMap
	Records  []ingest.RawRecord
	Result   ingest.Result
}

/*
Load reads a CSV or XLSX file chunk by chunk. The field map is guessed from
the headers of the first chunk and every chunk is ingested as it arrives.
*/
func Load(fileName string, reader io.Reader, chunkSize int) (upload Upload, e *xerr.Error) {
	upload.FileName = fileName

	var ingestor *ingest.Ingestor
	fields, e := ingest.ReadFile(fileName, reader, chunkSize, func(chunk ingest.Chunk) error {
		if ingestor == nil {
			upload.FieldMap = mapping.AutoMap(chunk.Fields)
			ingestor = ingest.NewIngestor(upload.FieldMap)
		}
		ingestor.Feed(chunk.Data)
		upload.Records = append(upload.Records, chunk.Data...)
		return nil
	})
	if e != nil {
		return upload, e
	}

	upload.Headers = fields
	if ingestor == nil {
		upload.FieldMap = mapping.AutoMap(fields)
		ingestor = ingest.NewIngestor(upload.FieldMap)
	}
	upload.Result = ingestor.Result()

	tl.Log(
		tl.Info1, palette.Green, "Loaded '%s': %s records, %s rows, %s skipped",
		fileName, len(upload.Records), len(upload.Result.Rows), upload.Result.Skipped,
	)
	return upload, nil
}

// Session is a snapshot. Its slices are shared with the store and must not be modified.
type Session struct {
	ID         string             `json:"id"`
	FileName   string             `json:"fileName"`
	Headers    []string           `json:"headers"`
	FieldMap   mapping.FieldMap   `json:"fieldMap"`
	Records    []ingest.RawRecord `json:"-"`
	Result     ingest.Result      `json:"-"`
	UploadedAt time.Time          `json:"uploadedAt"`

	sequence uint64
}

// Store is safe for concurrent use.
type Store struct {
	mutex       sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	sequence    uint64
	now         func() time.Time
}

// NewStore keeps at most maxSessions sessions, dropping the oldest upload first. Zero means no limit.
func NewStore(maxSessions int) *Store {
	return &Store{sessions: map[string]*Session{}, maxSessions: maxSessions, now: time.Now}
}

// Create stores an upload under a new id.
func (store *Store) Create(upload Upload) Session {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	created := &Session{ID: uuid.NewString()}
	store.fill(created, upload)
	store.sessions[created.ID] = created
	store.evict()

	tl.Log(tl.Verbose, palette.Blue, "Created session '%s' for '%s'", created.ID, upload.FileName)
	return *created
}

// Replace swaps everything in session id for the new upload.
func (store *Store) Replace(id string, upload Upload) (replaced Session, e *xerr.Error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	existing, ok := store.sessions[id]
	if !ok {
		return replaced, xerr.NewError(ErrNotFound, "Unable to replace upload", id)
	}
	fresh := &Session{ID: id}
	store.fill(fresh, upload)
	store.sessions[id] = fresh

	tl.Log(tl.Verbose, palette.Blue, "Replaced '%s' with '%s' in session '%s'", existing.FileName, upload.FileName, id)
	return *fresh, nil
}

/*
Remap applies an operator's field map and rebuilds the rows from the stored
raw records. Headers the file doesn't have are rejected.
*/
func (store *Store) Remap(id string, fieldMap mapping.FieldMap) (remapped Session, e *xerr.Error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	existing, ok := store.sessions[id]
	if !ok {
		return remapped, xerr.NewError(ErrNotFound, "Unable to remap upload", id)
	}
	err := fieldMap.Validate(existing.Headers)
	if err != nil {
		return remapped, xerr.NewError(err, "Unable to remap upload", id)
	}

	updated := *existing
	updated.FieldMap = fieldMap
	updated.Result = ingest.Ingest(existing.Records, fieldMap)
	store.sessions[id] = &updated
	return updated, nil
}

func (store *Store) Get(id string) (found Session, ok bool) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	existing, ok := store.sessions[id]
	if !ok {
		return found, false
	}
	return *existing, true
}

func (store *Store) Delete(id string) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	delete(store.sessions, id)
}

func (store *Store) Len() int {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return len(store.sessions)
}

func (store *Store) fill(target *Session, upload Upload) {
	store.sequence++
	target.sequence = store.sequence
	target.FileName = upload.FileName
	target.Headers = upload.Headers
	target.FieldMap = upload.FieldMap
	target.Records = upload.Records
	target.Result = upload.Result
	target.UploadedAt = store.now()
}

// evict must be called with the write lock held.
func (store *Store) evict() {
	if store.maxSessions <= 0 || len(store.sessions) <= store.maxSessions {
		return
	}
	ordered := make([]*Session, 0, len(store.sessions))
	for _, existing := range store.sessions {
		ordered = append(ordered, existing)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].sequence < ordered[j].sequence })

	for _, oldest := range ordered[:len(ordered)-store.maxSessions] {
		delete(store.sessions, oldest.ID)
		tl.Log(tl.Info1, palette.Yellow, "Dropped session '%s' ('%s'), store is full", oldest.ID, oldest.FileName)
	}
}
