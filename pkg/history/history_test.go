package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/docpress/pkg/document"
)

func record(id string) Record {
	return Record{
		ID:             id,
		Filename:       id + ".txt",
		Type:           document.TypeTxt,
		InputSize:      1000,
		OutputSize:     800,
		Pages:          1,
		ConversionTime: 0.42,
		ConvertedAt:    time.Now(),
	}
}

func TestRecentNewestFirst(t *testing.T) {
	log := NewLog(10)
	log.Add(record("first"))
	log.Add(record("second"))
	log.Add(record("third"))

	assert.Equal(t, 3, log.Len())

	recent := log.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].ID)
	assert.Equal(t, "second", recent[1].ID)

	all := log.Recent(0)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].ID)
	assert.Equal(t, "first", all[2].ID)

	// asking for more than exists is not an error
	assert.Len(t, log.Recent(99), 3)
}

func TestEvictsOldest(t *testing.T) {
	log := NewLog(3)
	for i := 1; i <= 5; i++ {
		log.Add(record(fmt.Sprintf("r%d", i)))
	}

	assert.Equal(t, 3, log.Len())
	recent := log.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "r5", recent[0].ID)
	assert.Equal(t, "r3", recent[2].ID)
}

func TestDefaultLimit(t *testing.T) {
	log := NewLog(0)
	for i := 0; i < DefaultLimit+10; i++ {
		log.Add(record(fmt.Sprintf("r%d", i)))
	}
	assert.Equal(t, DefaultLimit, log.Len())
}

func TestSizeChangePercent(t *testing.T) {
	r := Record{InputSize: 1000, OutputSize: 800}
	assert.InDelta(t, 20.0, r.SizeChangePercent(), 0.001)

	grew := Record{InputSize: 1000, OutputSize: 1500}
	assert.InDelta(t, -50.0, grew.SizeChangePercent(), 0.001)

	empty := Record{InputSize: 0, OutputSize: 500}
	assert.Zero(t, empty.SizeChangePercent())
}

func TestConcurrentAdd(t *testing.T) {
	log := NewLog(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Add(record(fmt.Sprintf("c%d", n)))
			log.Recent(5)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, log.Len())
}
