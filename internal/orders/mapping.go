package orders

import (
	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/internal/basket"
	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
)

func toModel(order basket.Order) models.Order {
	items := make([]models.OrderLineItem, 0, len(order.Articles))
	for i, article := range order.Articles {
		lineID := uuid.Nil
		if article.ID != "" {
			if parsed, err := uuid.Parse(article.ID); err == nil {
				lineID = parsed
			}
		}
		items = append(items, models.OrderLineItem{
			ID:             lineID,
			ProductID:      article.ProductID,
			ProductName:    article.ProductName,
			Unit:           article.Unit,
			Price:          article.Price,
			AmountCount:    article.AmountCount,
			WeightPerPiece: article.WeightPerPiece,
			PiecesCount:    article.PiecesCount,
			Position:       i,
		})
	}
	return models.Order{
		SellerID:   order.SellerID,
		MarketID:   order.MarketID,
		BuyerID:    order.BuyerID,
		BuyerName:  order.BuyerName,
		BuyerEmail: order.BuyerEmail,
		PickupDate: order.PickupDate,
		Message:    order.Message,
		Status:     order.Status,
		Items:      items,
		CreatedAt:  order.CreatedDate,
	}
}

func toDomain(record models.Order) basket.Order {
	articles := make([]basket.LineItem, 0, len(record.Items))
	for _, item := range record.Items {
		articles = append(articles, basket.LineItem{
			ID:             item.ID.String(),
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Unit:           item.Unit,
			Price:          item.Price,
			AmountCount:    item.AmountCount,
			WeightPerPiece: item.WeightPerPiece,
			PiecesCount:    item.PiecesCount,
		})
	}
	return basket.Order{
		ID:          record.ID.String(),
		SellerID:    record.SellerID,
		MarketID:    record.MarketID,
		BuyerID:     record.BuyerID,
		BuyerName:   record.BuyerName,
		BuyerEmail:  record.BuyerEmail,
		PickupDate:  record.PickupDate,
		CreatedDate: record.CreatedAt,
		Message:     record.Message,
		Status:      record.Status,
		Articles:    articles,
	}
}
