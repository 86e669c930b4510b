package api

import (
	"parcel-courier/internal/api/middleware"
	"parcel-courier/internal/modules/addresschange"
	"parcel-courier/internal/modules/pages"
	"parcel-courier/internal/modules/shipments"
	"parcel-courier/internal/modules/support"
	"parcel-courier/internal/modules/transit"
	"parcel-courier/internal/modules/user"
	"parcel-courier/internal/realtime"

	"github.com/labstack/echo/v4"
)

// Handlers groups the feature handlers mounted by SetupRoutes.
type Handlers struct {
	Pages         *pages.Handler
	User          *user.Handler
	Shipments     *shipments.Handler
	Transit       *transit.Handler
	AddressChange *addresschange.Handler
	Support       *support.Handler
	Hub           *realtime.Hub
}

// SetupRoutes sets up every page and endpoint of the application. Session
// loading must already be installed on e.
func SetupRoutes(e *echo.Echo, h Handlers) {
	adminRequired := middleware.RequireSession()

	// --- Public Pages ---
	e.GET("/", h.Pages.Home)
	e.GET("/about", h.Pages.About)
	e.GET("/solutions", h.Pages.Solutions)
	e.GET("/solutions/:slug", h.Pages.Solution)
	e.GET("/language", h.Pages.LanguageForm)
	e.POST("/language", h.Pages.SetLanguage)
	e.POST("/contact", h.Support.Contact)
	e.GET("/healthz", h.Pages.Healthz)

	// --- Admin Session ---
	e.GET("/admin-login", h.User.LoginForm)
	e.POST("/admin-login", h.User.Login)
	e.POST("/logout", h.User.Logout)

	// --- Tracking ---
	e.GET("/track-parcel", h.Shipments.TrackForm)
	e.POST("/track-parcel", h.Shipments.Track)
	e.GET("/shipment-tracking/:id", h.Shipments.Tracking)
	e.POST("/shipment-tracking/:id/address-change", h.AddressChange.Submit)
	e.GET("/api/shipments/:id", h.Shipments.GetShipment)
	e.GET("/ws/shipment-tracking/:id", h.Hub.ServeParcelWS)

	// --- Admin Pages ---
	e.GET("/create-shipment", h.Shipments.CreateForm, adminRequired)
	e.POST("/create-shipment", h.Shipments.Create, adminRequired)
	e.GET("/admin-dashboard", h.Shipments.Dashboard, adminRequired)
	e.POST("/admin-dashboard/delete-all", h.Shipments.DeleteAll, adminRequired)

	e.GET("/parcel/:id", h.Shipments.Parcel, adminRequired)
	e.POST("/parcel/:id/delete", h.Shipments.Delete, adminRequired)
	e.GET("/parcel/:id/edit", h.Shipments.EditForm, adminRequired)
	e.POST("/parcel/:id/edit", h.Shipments.Edit, adminRequired)
	e.POST("/parcel/:id/tracking", h.Transit.Add, adminRequired)
	e.POST("/tracking/:transportId", h.Transit.Edit, adminRequired)
	e.POST("/tracking/:transportId/delete", h.Transit.Delete, adminRequired)

	e.GET("/address-change-request", h.AddressChange.List, adminRequired)
	e.GET("/ws/address-change-requests", h.Hub.ServeWS, adminRequired)
	e.POST("/address-change-request/:parcelId/approve", h.AddressChange.Approve, adminRequired)
	e.POST("/address-change-request/:parcelId/reject", h.AddressChange.Reject, adminRequired)
	e.POST("/address-change-request/:parcelId/delete", h.AddressChange.Delete, adminRequired)

	e.GET("/customer-service", h.Support.Inbox, adminRequired)
}
