package model

// カートの明細（商品IDと数量だけ）
// Quantityは常に1以上。0以下の明細は存在しない。
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}
