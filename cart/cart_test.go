package cart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/models"
)

type failingStorage struct {
	MemoryStorage
}

func (s *failingStorage) Save([]Item) error { return assert.AnError }

func fish(name string, price float64) *models.Fish {
	return &models.Fish{ID: primitive.NewObjectID(), Name: name, PricePerKg: price, IsActive: true}
}

func newCart(t *testing.T) *Cart {
	t.Helper()
	c, err := New(nil)
	require.NoError(t, err)
	return c
}

func TestAddMergesSameFish(t *testing.T) {
	c := newCart(t)
	rohu := fish("Rohu", 300)

	require.NoError(t, c.Add(rohu, 1))
	require.NoError(t, c.Add(rohu, 2))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, rohu.ID, items[0].FishID)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	c := newCart(t)
	rohu, hilsa, prawn := fish("Rohu", 300), fish("Hilsa", 1200), fish("Prawn", 800)

	require.NoError(t, c.Add(rohu, 1))
	require.NoError(t, c.Add(hilsa, 1))
	require.NoError(t, c.Add(prawn, 1))
	require.NoError(t, c.Add(rohu, 1))

	var names []string
	for _, it := range c.Items() {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"Rohu", "Hilsa", "Prawn"}, names)
}

func TestAddRejectsMissingFish(t *testing.T) {
	c := newCart(t)
	assert.ErrorIs(t, c.Add(nil, 1), ErrInvalidFish)
	assert.ErrorIs(t, c.Add(&models.Fish{Name: "Rohu", PricePerKg: 300}, 1), ErrInvalidFish)
	assert.True(t, c.IsEmpty())
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	c := newCart(t)
	assert.ErrorIs(t, c.Add(fish("Rohu", 300), 0), ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestSetQuantity(t *testing.T) {
	c := newCart(t)
	rohu, hilsa := fish("Rohu", 300), fish("Hilsa", 1200)
	require.NoError(t, c.Add(rohu, 1))
	require.NoError(t, c.Add(hilsa, 1))

	require.NoError(t, c.SetQuantity(rohu.ID, 5))
	assert.Equal(t, 6, c.Count())

	require.NoError(t, c.SetQuantity(hilsa.ID, 0))
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Rohu", items[0].Name)

	require.NoError(t, c.SetQuantity(rohu.ID, -1))
	assert.True(t, c.IsEmpty())

	require.NoError(t, c.SetQuantity(primitive.NewObjectID(), 4))
	assert.True(t, c.IsEmpty())
}

func TestRemoveAndClear(t *testing.T) {
	c := newCart(t)
	rohu, hilsa := fish("Rohu", 300), fish("Hilsa", 1200)
	require.NoError(t, c.Add(rohu, 1))
	require.NoError(t, c.Add(hilsa, 2))

	require.NoError(t, c.Remove(rohu.ID))
	assert.Equal(t, 2, c.Count())
	require.NoError(t, c.Remove(rohu.ID))

	require.NoError(t, c.Clear())
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0.0, c.Subtotal())
}

func TestTotals(t *testing.T) {
	c := newCart(t)
	require.NoError(t, c.Add(fish("Rohu", 300), 2))
	require.NoError(t, c.Add(fish("Pabda", 450.5), 3))

	assert.Equal(t, 1951.5, c.Subtotal())
	assert.Equal(t, 2001.5, c.Total(models.DefaultDeliveryFee))

	items := c.OrderItems()
	require.Len(t, items, 2)
	assert.Equal(t, 600.0, items[0].Subtotal)
	assert.Equal(t, 1351.5, items[1].Subtotal)
}

func TestPriceSnapshotIsKept(t *testing.T) {
	c := newCart(t)
	rohu := fish("Rohu", 300)
	require.NoError(t, c.Add(rohu, 1))

	rohu.PricePerKg = 350
	require.NoError(t, c.Add(rohu, 1))

	assert.Equal(t, 300.0, c.Items()[0].PricePerKg)
}

func TestFailedSaveLeavesCartUnchanged(t *testing.T) {
	c, err := New(&failingStorage{})
	require.NoError(t, err)

	assert.ErrorIs(t, c.Add(fish("Rohu", 300), 1), assert.AnError)
	assert.True(t, c.IsEmpty())
}

func TestFileStorageSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cart.json")
	rohu := fish("Rohu", 300)

	first, err := New(NewFileStorage(path))
	require.NoError(t, err)
	require.NoError(t, first.Add(rohu, 2))

	second, err := New(NewFileStorage(path))
	require.NoError(t, err)
	items := second.Items()
	require.Len(t, items, 1)
	assert.Equal(t, rohu.ID, items[0].FishID)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, second.Clear())
	third, err := New(NewFileStorage(path))
	require.NoError(t, err)
	assert.True(t, third.IsEmpty())
}

func TestFileStorageMissingFile(t *testing.T) {
	items, err := NewFileStorage(filepath.Join(t.TempDir(), "cart.json")).Load()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFileStorageCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := New(NewFileStorage(path))
	assert.Error(t, err)
}

func TestNewDropsInvalidAndMergesDuplicates(t *testing.T) {
	id := primitive.NewObjectID()
	store := NewMemoryStorage()
	require.NoError(t, store.Save([]Item{
		{FishID: id, Name: "Rohu", PricePerKg: 300, Quantity: 1},
		{FishID: primitive.NewObjectID(), Name: "Ghost", Quantity: 0},
		{Name: "No id", Quantity: 2},
		{FishID: id, Name: "Rohu", PricePerKg: 300, Quantity: 2},
	}))

	c, err := New(store)
	require.NoError(t, err)
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}
