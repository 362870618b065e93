// Package models holds the request-scoped types shared between the router,
// handlers and services.
package models

// AuthMaterial carries the credentials and client identity extracted from a
// single HTTP request. Lifetime is the request.
type AuthMaterial struct {
	SessionToken string
	APIKey       string
	PeerIP       string
	UserAgent    string
}

// APIKeyType is the typed role of an API key.
type APIKeyType string

const (
	KeyTypeWeatherUpload      APIKeyType = "weather_upload"
	KeyTypeStationsManagement APIKeyType = "stations_management"
	KeyTypeStationsControl    APIKeyType = "stations_control"
)

// Valid reports whether t is one of the known key roles.
func (t APIKeyType) Valid() bool {
	switch t {
	case KeyTypeWeatherUpload, KeyTypeStationsManagement, KeyTypeStationsControl:
		return true
	}
	return false
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PatchUserRequest is the body of PATCH /users/{id}. Absent fields stay nil
// and the corresponding columns keep their values via COALESCE.
type PatchUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	OldPassword *string `json:"oldPassword"`
	MaxStations *int    `json:"max_stations"`
	IsAdmin     *bool   `json:"is_admin"`
}

// CreateSessionRequest is the body of POST /users/{id}/sessions.
type CreateSessionRequest struct {
	Password string `json:"password"`
}

// CreateStationRequest is the body of POST /stations.
type CreateStationRequest struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Altitude float64 `json:"altitude"`
}

// CreateAPIKeyRequest is the body of POST /users/{id}/api-keys.
type CreateAPIKeyRequest struct {
	Name       string `json:"name"`
	APIKeyType string `json:"api_key_type"`
	StationID  string `json:"station_id"`
}
