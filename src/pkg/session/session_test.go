package session

import (
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reminder/src/pkg/mapping"
)

const agedCSV = "Customer Name,Email,Invoice #,Balance,Due Date\n" +
	"Acme,ap@acme.test,INV-1,100.00,2024-01-01\n" +
	",,INV-2,5,2024-01-01\n" +
	"Beta,,INV-3,(20.00),2024-02-01\n"

func load(t *testing.T, name, content string) Upload {
	t.Helper()
	upload, e := Load(name, strings.NewReader(content), 2)
	require.Nil(t, e)
	return upload
}

func TestLoad(t *testing.T) {
	upload := load(t, "aged.csv", agedCSV)

	assert.Equal(t, "aged.csv", upload.FileName)
	assert.Equal(t, []string{"Customer Name", "Email", "Invoice #", "Balance", "Due Date"}, upload.Headers)
	assert.Equal(t, mapping.FieldMap{Customer: "Customer Name", Email: "Email", Invoice: "Invoice #", Amount: "Balance", DueDate: "Due Date"}, upload.FieldMap)
	assert.Len(t, upload.Records, 3)
	require.Len(t, upload.Result.Rows, 2)
	assert.Equal(t, 1, upload.Result.Skipped)
	assert.True(t, upload.Result.Rows[1].Amount.Equal(decimal.NewFromInt(-20)))
}

func TestLoadHeaderOnly(t *testing.T) {
	upload := load(t, "empty.csv", "Customer,Amount\n")
	assert.Equal(t, mapping.FieldMap{Customer: "Customer", Amount: "Amount"}, upload.FieldMap)
	assert.Empty(t, upload.Result.Rows)
}

func TestLoadEmptyFile(t *testing.T) {
	_, e := Load("empty.csv", strings.NewReader(""), 10)
	assert.NotNil(t, e)
}

func TestReplaceDoesNotMerge(t *testing.T) {
	store := NewStore(0)
	created := store.Create(load(t, "aged.csv", agedCSV))

	replaced, e := store.Replace(created.ID, load(t, "fresh.csv", "Customer,Amount\nGamma,10\n"))
	require.Nil(t, e)

	assert.Equal(t, created.ID, replaced.ID)
	got, ok := store.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "fresh.csv", got.FileName)
	require.Len(t, got.Result.Rows, 1)
	assert.Equal(t, "Gamma", got.Result.Rows[0].Customer)
	assert.Len(t, got.Records, 1)

	_, e = store.Replace("missing", Upload{})
	assert.NotNil(t, e)
}

func TestRemap(t *testing.T) {
	store := NewStore(0)
	created := store.Create(load(t, "aged.csv", agedCSV))

	fieldMap, err := created.FieldMap.With(mapping.FieldCustomer, "Invoice #")
	require.NoError(t, err)

	remapped, e := store.Remap(created.ID, fieldMap)
	require.Nil(t, e)
	assert.Equal(t, "Balance", remapped.FieldMap.Amount)
	require.Len(t, remapped.Result.Rows, 3)
	assert.Equal(t, "INV-2", remapped.Result.Rows[1].Customer)

	untouched, _ := store.Get(created.ID)
	assert.Len(t, untouched.Records, 3)

	_, e = store.Remap(created.ID, mapping.FieldMap{Customer: "Nope"})
	assert.NotNil(t, e)
	_, e = store.Remap("missing", fieldMap)
	assert.NotNil(t, e)
}

func TestStoreEvictsOldest(t *testing.T) {
	store := NewStore(2)
	first := store.Create(Upload{FileName: "1.csv"})
	second := store.Create(Upload{FileName: "2.csv"})
	third := store.Create(Upload{FileName: "3.csv"})

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get(first.ID)
	assert.False(t, ok)
	_, ok = store.Get(second.ID)
	assert.True(t, ok)
	_, ok = store.Get(third.ID)
	assert.True(t, ok)

	store.Delete(second.ID)
	assert.Equal(t, 1, store.Len())
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(0)
	created := store.Create(load(t, "aged.csv", agedCSV))

	var group sync.WaitGroup
	for index := 0; index < 20; index++ {
		group.Add(2)
		go func() {
			defer group.Done()
			_, _ = store.Get(created.ID)
		}()
		go func() {
			defer group.Done()
			_, _ = store.Remap(created.ID, created.FieldMap)
		}()
	}
	group.Wait()

	got, ok := store.Get(created.ID)
	require.True(t, ok)
	assert.Len(t, got.Result.Rows, 2)
}
