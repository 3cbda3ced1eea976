package services

// Services bundles the service instances the HTTP layer uses
type Services struct {
	Carts      *CartService
	Orders     *OrderService
	Kitchen    *KitchenService
	Payments   *PaymentService
	Tables     *TableService
	Catalog    *CatalogService
	TableCodes *TableCodeService
	// Staff is nil when Auth0 is not configured
	Staff *Auth0Service
}

// Collaborators are the optional outside systems the services talk to.
// Nil fields fall back to in-process implementations.
type Collaborators struct {
	Receipts ReceiptArchive
	Guests   GuestTracker
	Images   *ImageService
	Staff    *Auth0Service
}

var servicesInstance *Services

// InitServices builds every service over the same dependencies and makes them the global instance
func InitServices(d Deps, c Collaborators, codes *TableCodeService) *Services {
	servicesInstance = &Services{
		Carts:      NewCartService(d),
		Orders:     NewOrderService(d),
		Kitchen:    NewKitchenService(d),
		Payments:   NewPaymentService(d, c.Receipts),
		Tables:     NewTableService(d, c.Guests),
		Catalog:    NewCatalogService(d, c.Images),
		TableCodes: codes,
		Staff:      c.Staff,
	}
	return servicesInstance
}

// GetServices returns the initialized services
func GetServices() *Services {
	return servicesInstance
}

// SetServices sets the services instance (primarily for testing)
func SetServices(s *Services) {
	servicesInstance = s
}
