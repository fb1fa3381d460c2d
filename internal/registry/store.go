// Package registry реализует durable-реестр чатов-получателей и
// администраторов. Все мутации синхронно сохраняются на диск до того,
// как станут видимыми; при ошибке записи состояние в памяти
// откатывается к значению до вызова.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"telegram-relay-bot/internal/domain"
)

// DefaultSet — имя набора получателей по умолчанию.
// Он существует всегда, даже пустой.
const DefaultSet = "temp"

// ErrSuperAdmin возвращается при попытке удалить супер-администратора:
// их множество задано конфигурацией и во время работы неизменяемо.
var ErrSuperAdmin = errors.New("супер-администратор не может быть удален")

const (
	destinationsFile = "destinations.json"
	adminsFile       = "admins.json"
)

// Store управляет наборами получателей и списком администраторов.
// Коллекциями владеет только Store; наружу отдаются снимки.
type Store struct {
	mu    sync.RWMutex
	dir   string
	sets  map[string][]domain.Destination
	admin []int64
	super map[int64]struct{}
}

// Load читает сохраненное состояние из каталога dir. Отсутствующие файлы —
// не ошибка: реестр инициализируется пустым набором по умолчанию и списком
// администраторов из seedAdmins (супер-администраторы авторизованы всегда,
// независимо от присутствия в этом списке). seedSets добавляет
// преднастроенные наборы получателей из конфигурации.
func Load(dir string, seedAdmins []int64, seedSets map[string][]int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог хранилища %s: %w", dir, err)
	}

	s := &Store{
		dir:   dir,
		sets:  map[string][]domain.Destination{DefaultSet: {}},
		super: make(map[int64]struct{}, len(seedAdmins)),
	}
	for _, id := range seedAdmins {
		s.super[id] = struct{}{}
	}

	if err := readJSON(filepath.Join(dir, destinationsFile), &s.sets); err != nil {
		return nil, fmt.Errorf("не удалось прочитать реестр получателей: %w", err)
	}
	if err := readJSON(filepath.Join(dir, adminsFile), &s.admin); err != nil {
		return nil, fmt.Errorf("не удалось прочитать реестр администраторов: %w", err)
	}

	if s.sets == nil {
		s.sets = map[string][]domain.Destination{}
	}
	if _, ok := s.sets[DefaultSet]; !ok {
		s.sets[DefaultSet] = []domain.Destination{}
	}

	// Преднастроенные наборы из конфигурации: добавляем недостающие
	// идентификаторы, не затирая уже сохраненные.
	for name, ids := range seedSets {
		for _, id := range ids {
			if !containsDest(s.sets[name], id) {
				s.sets[name] = append(s.sets[name], domain.Destination{ChatID: id})
			}
		}
	}
	for _, id := range seedAdmins {
		if !containsID(s.admin, id) {
			s.admin = append(s.admin, id)
		}
	}

	return s, nil
}

// AddDestination добавляет чат в набор. Повторное добавление уже
// присутствующего идентификатора — no-op, который тем не менее считается
// успехом; added при этом равен false. Изменение сохраняется на диск до
// возврата.
func (s *Store) AddDestination(setName string, dest domain.Destination) (added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if containsDest(s.sets[setName], dest.ChatID) {
		return false, nil
	}

	prev := s.sets[setName]
	s.sets[setName] = append(append([]domain.Destination{}, prev...), dest)
	if err := s.persistDestinations(); err != nil {
		// Откат: вызывающий не должен увидеть частичную мутацию.
		if prev == nil {
			delete(s.sets, setName)
		} else {
			s.sets[setName] = prev
		}
		return false, err
	}
	return true, nil
}

// RemoveDestination убирает чат из набора и сообщает, был ли он там.
func (s *Store) RemoveDestination(setName string, chatID int64) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.sets[setName]
	if !ok || !containsDest(prev, chatID) {
		return false, nil
	}

	next := make([]domain.Destination, 0, len(prev)-1)
	for _, d := range prev {
		if d.ChatID != chatID {
			next = append(next, d)
		}
	}
	s.sets[setName] = next
	if err := s.persistDestinations(); err != nil {
		s.sets[setName] = prev
		return false, err
	}
	return true, nil
}

// ListDestinations возвращает упорядоченный по идентификатору чата снимок
// набора. Неизвестное имя набора дает пустой срез.
func (s *Store) ListDestinations(setName string) []domain.Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]domain.Destination{}, s.sets[setName]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

// HasSet сообщает, известен ли реестру набор с таким именем.
func (s *Store) HasSet(setName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sets[setName]
	return ok
}

// SetNames возвращает отсортированные имена всех наборов.
func (s *Store) SetNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.sets))
	for name := range s.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddAdmin добавляет администратора. Повторное добавление — успешный no-op.
func (s *Store) AddAdmin(userID int64) (added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if containsID(s.admin, userID) {
		return false, nil
	}

	prev := s.admin
	s.admin = append(append([]int64{}, prev...), userID)
	if err := s.persistAdmins(); err != nil {
		s.admin = prev
		return false, err
	}
	return true, nil
}

// RemoveAdmin убирает администратора и сообщает, был ли он в списке.
// Для супер-администратора возвращается ErrSuperAdmin без мутации.
func (s *Store) RemoveAdmin(userID int64) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.super[userID]; ok {
		return false, ErrSuperAdmin
	}
	if !containsID(s.admin, userID) {
		return false, nil
	}

	prev := s.admin
	next := make([]int64, 0, len(prev)-1)
	for _, id := range prev {
		if id != userID {
			next = append(next, id)
		}
	}
	s.admin = next
	if err := s.persistAdmins(); err != nil {
		s.admin = prev
		return false, err
	}
	return true, nil
}

// Admins возвращает отсортированный снимок списка администраторов.
func (s *Store) Admins() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]int64{}, s.admin...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// persistDestinations полностью переписывает файл наборов получателей.
// Вызывается только под s.mu.
func (s *Store) persistDestinations() error {
	return writeJSONAtomic(filepath.Join(s.dir, destinationsFile), s.sets)
}

// persistAdmins полностью переписывает файл администраторов.
// Вызывается только под s.mu.
func (s *Store) persistAdmins() error {
	if s.admin == nil {
		return writeJSONAtomic(filepath.Join(s.dir, adminsFile), []int64{})
	}
	return writeJSONAtomic(filepath.Join(s.dir, adminsFile), s.admin)
}

// readJSON читает JSON-файл в v. Отсутствие файла — не ошибка.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSONAtomic записывает v во временный файл и атомарно переименовывает
// его в path, чтобы читатель никогда не увидел частично записанный файл.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("не удалось сериализовать %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("не удалось записать %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("не удалось переименовать %s: %w", tmp, err)
	}
	return nil
}

func containsDest(list []domain.Destination, chatID int64) bool {
	for _, d := range list {
		if d.ChatID == chatID {
			return true
		}
	}
	return false
}

func containsID(list []int64, id int64) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
