// Package auth реализует политику авторизации: чистую функцию
// классификации отправителя без побочных эффектов и без I/O.
package auth

import "sort"

// Tier — уровень авторизации отправителя.
type Tier int

const (
	// TierUnauthorized — отправитель не имеет никаких прав.
	TierUnauthorized Tier = iota
	// TierAdmin — администратор, добавленный во время работы.
	TierAdmin
	// TierSuperAdmin — администратор, заданный конфигурацией процесса.
	// Всегда авторизован, не может быть удален во время работы.
	TierSuperAdmin
)

// Policy хранит неизменяемое множество супер-администраторов.
// Список обычных администраторов передается при каждом вызове,
// поскольку им владеет реестр.
type Policy struct {
	superAdmins map[int64]struct{}
}

// NewPolicy создает политику с заданными супер-администраторами.
func NewPolicy(superAdmins []int64) *Policy {
	set := make(map[int64]struct{}, len(superAdmins))
	for _, id := range superAdmins {
		set[id] = struct{}{}
	}
	return &Policy{superAdmins: set}
}

// Classify определяет уровень авторизации отправителя.
// Супер-администраторы проверяются первыми.
func (p *Policy) Classify(actorID int64, admins []int64) Tier {
	if _, ok := p.superAdmins[actorID]; ok {
		return TierSuperAdmin
	}
	for _, id := range admins {
		if id == actorID {
			return TierAdmin
		}
	}
	return TierUnauthorized
}

// IsAuthorized сообщает, имеет ли отправитель хоть какой-то уровень прав.
func (p *Policy) IsAuthorized(actorID int64, admins []int64) bool {
	return p.Classify(actorID, admins) != TierUnauthorized
}

// IsSuperAdmin проверяет принадлежность к неизменяемому множеству
// супер-администраторов.
func (p *Policy) IsSuperAdmin(actorID int64) bool {
	_, ok := p.superAdmins[actorID]
	return ok
}

// SuperAdmins возвращает отсортированную копию множества
// супер-администраторов. Само множество изменить нельзя.
func (p *Policy) SuperAdmins() []int64 {
	out := make([]int64, 0, len(p.superAdmins))
	for id := range p.superAdmins {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
