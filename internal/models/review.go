package models

import (
	"time"

	"github.com/google/uuid"
)

// Оцениваемые роли
const (
	RoleRatedProvider = "provider"
	RoleRatedCustomer = "customer"
)

// ReputationPerStar определяет шаг изменения репутации: дельта равна
// (rating - 3) * ReputationPerStar и прижимается к нулю снизу, поэтому
// пятёрка никогда не уменьшает репутацию, а единица не увеличивает.
const ReputationPerStar = 5

// ReputationDelta возвращает изменение репутации для оценки 1..5.
func ReputationDelta(rating int) int {
	return (rating - 3) * ReputationPerStar
}

// Review описывает отзыв участника о второй стороне завершённой работы.
// На пару (работа, автор) допускается не более одного отзыва.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	JobID      uuid.UUID `db:"job_id" json:"job_id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	RevieweeID uuid.UUID `db:"reviewee_id" json:"reviewee_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	RoleRated  string    `db:"role_rated" json:"role_rated"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
