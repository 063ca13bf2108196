package cart

// Repo is durable cart storage keyed by a cart ID that outlives browser
// sessions. Get on an unknown cart returns an empty cart, not an error.
type Repo interface {
	Get(cartID string) (Items, error)
	Put(cartID string, items Items) error
	Delete(cartID string) error
}
