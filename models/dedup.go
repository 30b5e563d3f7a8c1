package models

import "time"

// DedupRecord 는 최근 이력 윈도우에 저장되는 레시피 지문이다.
type DedupRecord struct {
	Fingerprint string    `json:"fingerprint" bson:"fingerprint"`
	Title       string    `json:"title" bson:"title"`
	TitleGrams  []string  `json:"title_grams" bson:"title_grams"`
	Ingredients []string  `json:"ingredients" bson:"ingredients"`
	RecipeSlug  string    `json:"recipe_slug" bson:"recipe_slug"`
	InsertedAt  time.Time `json:"inserted_at" bson:"inserted_at"`
	// Seq 는 삽입 순번이다. 같은 InsertedAt 끼리도 재시작 후 삽입 순서를 복원한다.
	Seq int64 `json:"seq" bson:"seq"`
}
