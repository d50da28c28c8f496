package model

// ShopInfo is the shop metadata returned by a successful connection test.
type ShopInfo struct {
	Name     string
	Email    string
	Domain   string
	Currency string
	Timezone string
	PlanName string
}
