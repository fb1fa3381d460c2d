package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-relay-bot/internal/domain"
)

func TestLoadEmpty(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir, []int64{42}, nil)
	require.NoError(t, err)

	// Набор по умолчанию существует всегда, даже пустой.
	assert.True(t, s.HasSet(DefaultSet))
	assert.Empty(t, s.ListDestinations(DefaultSet))
	// Список администраторов инициализирован супер-администраторами.
	assert.Equal(t, []int64{42}, s.Admins())
}

func TestSeedSets(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir, []int64{42}, map[string][]int64{
		"group1": {-100111, -100222},
	})
	require.NoError(t, err)

	dests := s.ListDestinations("group1")
	require.Len(t, dests, 2)
	assert.Equal(t, int64(-100222), dests[0].ChatID)
	assert.Equal(t, int64(-100111), dests[1].ChatID)
	assert.True(t, s.HasSet("group1"))
}

func TestAddDestinationIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir, nil, nil)
	require.NoError(t, err)

	added, err := s.AddDestination(DefaultSet, domain.Destination{ChatID: -100555, Title: "Группа"})
	require.NoError(t, err)
	assert.True(t, added)

	// Повторное добавление — успешный no-op.
	added, err = s.AddDestination(DefaultSet, domain.Destination{ChatID: -100555})
	require.NoError(t, err)
	assert.False(t, added)

	assert.Len(t, s.ListDestinations(DefaultSet), 1)
}

func TestRemoveDestination(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir, nil, nil)
	require.NoError(t, err)

	_, err = s.AddDestination(DefaultSet, domain.Destination{ChatID: -100555})
	require.NoError(t, err)

	removed, err := s.RemoveDestination(DefaultSet, -100555)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveDestination(DefaultSet, -100555)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.RemoveDestination("unknown", -100555)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir, []int64{42}, nil)
	require.NoError(t, err)

	_, err = s.AddDestination(DefaultSet, domain.Destination{ChatID: -100999, Title: "Группа", Kind: domain.ChatKindSupergroup})
	require.NoError(t, err)
	_, err = s.AddDestination("group1", domain.Destination{ChatID: -100111})
	require.NoError(t, err)
	_, err = s.AddAdmin(1001)
	require.NoError(t, err)

	// Имитация перезапуска: новый Load из того же каталога.
	restarted, err := Load(dir, []int64{42}, nil)
	require.NoError(t, err)

	dests := restarted.ListDestinations(DefaultSet)
	require.Len(t, dests, 1)
	assert.Equal(t, int64(-100999), dests[0].ChatID)
	assert.Equal(t, "Группа", dests[0].Title)
	assert.Equal(t, domain.ChatKindSupergroup, dests[0].Kind)

	assert.True(t, restarted.HasSet("group1"))
	assert.Equal(t, []int64{42, 1001}, restarted.Admins())
}

func TestAdmins(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir, []int64{42}, nil)
	require.NoError(t, err)

	t.Run("add is idempotent", func(t *testing.T) {
		added, err := s.AddAdmin(1001)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = s.AddAdmin(1001)
		require.NoError(t, err)
		assert.False(t, added)
	})

	t.Run("remove reports presence", func(t *testing.T) {
		removed, err := s.RemoveAdmin(1001)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = s.RemoveAdmin(1001)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("super admin is irremovable", func(t *testing.T) {
		_, err := s.RemoveAdmin(42)
		assert.ErrorIs(t, err, ErrSuperAdmin)
		assert.Contains(t, s.Admins(), int64(42))
	})
}

func TestPersistFailureRollsBack(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "data")

	s, err := Load(dir, nil, nil)
	require.NoError(t, err)

	_, err = s.AddDestination(DefaultSet, domain.Destination{ChatID: -100555})
	require.NoError(t, err)

	// Ломаем хранилище: на месте каталога оказывается обычный файл,
	// запись временного файла становится невозможной.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	_, err = s.AddDestination(DefaultSet, domain.Destination{ChatID: -100777})
	assert.Error(t, err)
	// Состояние в памяти откатилось: частичная мутация не видна.
	dests := s.ListDestinations(DefaultSet)
	require.Len(t, dests, 1)
	assert.Equal(t, int64(-100555), dests[0].ChatID)

	_, err = s.AddAdmin(1001)
	assert.Error(t, err)
	assert.Empty(t, s.Admins())
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir, nil, nil)
	require.NoError(t, err)

	_, err = s.AddDestination(DefaultSet, domain.Destination{ChatID: -100555})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
