package bot

import "sync"

// TargetStore — потокобезопасное in-memory хранилище активной цели:
// сопоставление идентификатора отправителя с именем набора получателей,
// в который пересылаются его последующие личные сообщения.
// Живет только в памяти процесса и не сохраняется на диск.
type TargetStore struct {
	mu      sync.RWMutex
	targets map[int64]string // map[actorID]setName
}

// NewTargetStore создает новый экземпляр TargetStore.
func NewTargetStore() *TargetStore {
	return &TargetStore{
		targets: make(map[int64]string),
	}
}

// Set сохраняет активную цель для отправителя.
// Существующая цель перезаписывается.
func (s *TargetStore) Set(actorID int64, setName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[actorID] = setName
}

// Get извлекает активную цель отправителя.
// Возвращает имя набора и true, если цель выбрана, иначе — пустую строку и false.
func (s *TargetStore) Get(actorID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	setName, ok := s.targets[actorID]
	return setName, ok
}

// Clear сбрасывает активную цель отправителя.
func (s *TargetStore) Clear(actorID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, actorID)
}
