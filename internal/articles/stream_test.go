package articles

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

func TestDecodeChangeRoundTrip(t *testing.T) {
	article := models.Article{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		Name:     "Sourdough Bread",
		Unit:     enums.UnitPiece,
		Price:    decimal.RequireFromString("4.80"),
	}
	payload, err := json.Marshal(ChangeEvent{Kind: enums.ArticleChangeChanged, Article: article})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	change, err := decodeChange(payload)
	if err != nil {
		t.Fatalf("decodeChange returned error: %v", err)
	}
	if change.Kind != enums.ArticleChangeChanged {
		t.Errorf("kind = %s, want changed", change.Kind)
	}
	if change.Article.ID != article.ID {
		t.Errorf("article id = %s, want %s", change.Article.ID, article.ID)
	}
	if !change.Article.Price.Equal(article.Price) {
		t.Errorf("price = %s, want %s", change.Article.Price, article.Price)
	}
}

func TestDecodeChangeRejectsBadPayloads(t *testing.T) {
	if _, err := decodeChange([]byte("{not json")); err == nil {
		t.Error("expected error for malformed json")
	}
	if _, err := decodeChange([]byte(`{"kind":"exploded","article":{}}`)); err == nil {
		t.Error("expected error for unknown kind")
	}
}
