package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/duelist-dev/duelcore/pkg/log"
)

var _ AuthHandler = &FirebaseAuthHandler{}

// FirebaseAuthHandler implements AuthHandler using the Firebase Auth REST API
type FirebaseAuthHandler struct {
	apiKey string
}

// NewFirebaseAuthHandler creates a new instance of FirebaseAuthHandler
func NewFirebaseAuthHandler(apiKey string) *FirebaseAuthHandler {
	return &FirebaseAuthHandler{
		apiKey: apiKey,
	}
}

// ErrorResponseBody is the response body for an error
// https://firebase.google.com/docs/reference/rest/auth#section-error-format
type ErrorResponseBody struct {
	Error struct {
		Code    int                  `json:"code"`
		Message ErrorResponseMessage `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
			Domain  string `json:"domain"`
			Reason  string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

type ErrorResponseMessage string

const (
	ErrorEmailExists             ErrorResponseMessage = "EMAIL_EXISTS"
	ErrorOperationNotAllowed     ErrorResponseMessage = "OPERATION_NOT_ALLOWED"
	ErrorTooManyAttempts         ErrorResponseMessage = "TOO_MANY_ATTEMPTS_TRY_LATER"
	ErrorInvalidEmail            ErrorResponseMessage = "INVALID_EMAIL"
	ErrorInvalidLoginCredentials ErrorResponseMessage = "INVALID_LOGIN_CREDENTIALS"
	ErrorTokenExpired            ErrorResponseMessage = "TOKEN_EXPIRED"
	ErrorInvalidIDToken          ErrorResponseMessage = "INVALID_ID_TOKEN"
	ErrorUserNotFound            ErrorResponseMessage = "USER_NOT_FOUND"
	ErrorWeakPassword            ErrorResponseMessage = "WEAK_PASSWORD : Password should be at least 6 characters"
)

// clientErrors maps REST API error messages to responses for the client.
var clientErrors = map[ErrorResponseMessage]string{
	ErrorInvalidEmail:            "Invalid email",
	ErrorWeakPassword:            "Password should be at least 6 characters",
	ErrorEmailExists:             "Email already exists",
	ErrorOperationNotAllowed:     "Operation not allowed",
	ErrorTooManyAttempts:         "Too many attempts, try again later",
	ErrorInvalidLoginCredentials: "Invalid credentials",
	ErrorTokenExpired:            "Token expired",
	ErrorInvalidIDToken:          "Invalid ID token",
	ErrorUserNotFound:            "User not found",
}

// call posts payload to a Firebase REST endpoint and decodes the response
// into out. A non-nil *ErrorResponseBody means the API rejected the call.
func (s *FirebaseAuthHandler) call(url string, payload interface{}, out interface{}) (*ErrorResponseBody, error) {
	body := bytes.NewBuffer(nil)
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return nil, fmt.Errorf("error encoding request body: %v", err)
	}

	req, err := http.NewRequest("POST", url+"?key="+s.apiKey, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorResponse := &ErrorResponseBody{}
		if err := json.NewDecoder(resp.Body).Decode(errorResponse); err != nil {
			return nil, fmt.Errorf("failed to decode error response: %v", err)
		}
		return errorResponse, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("error decoding response: %v", err)
		}
	}
	return nil, nil
}

// respondError writes the client-facing message for an API error.
func respondError(w http.ResponseWriter, errorResponse *ErrorResponseBody, fallback string) {
	if message, ok := clientErrors[errorResponse.Error.Message]; ok {
		http.Error(w, message, http.StatusBadRequest)
		return
	}
	log.Error("unhandled error response message: %s", errorResponse.Error.Message)
	http.Error(w, fallback, http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("error encoding response: %v", err)
		http.Error(w, "error encoding response", http.StatusInternalServerError)
	}
}

// RegisterRequestBody is the request body for the register endpoint
type RegisterRequestBody struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// RegisterResponseBody is the response body for the register endpoint
type RegisterResponseBody struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// UpdateProfileRequestBody sets the display name on a new account
type UpdateProfileRequestBody struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// HandleRegister handles requests to the register endpoint. An optional
// displayName form value becomes the player's battle name.
// https://firebase.google.com/docs/reference/rest/auth#section-create-email-password
func (s *FirebaseAuthHandler) HandleRegister() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.FormValue("email")
		password := r.FormValue("password")
		displayName := r.FormValue("displayName")

		if email == "" {
			http.Error(w, "Missing email", http.StatusBadRequest)
			return
		}
		if password == "" {
			http.Error(w, "Missing password", http.StatusBadRequest)
			return
		}

		requestPayload := &RegisterRequestBody{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		}
		responsePayload := &RegisterResponseBody{}
		errorResponse, err := s.call("https://identitytoolkit.googleapis.com/v1/accounts:signUp", requestPayload, responsePayload)
		if err != nil {
			log.Error("register request failed: %v", err)
			http.Error(w, "Failed to register", http.StatusInternalServerError)
			return
		}
		if errorResponse != nil {
			respondError(w, errorResponse, "Failed to register")
			return
		}

		if displayName != "" {
			updatePayload := &UpdateProfileRequestBody{
				IDToken:     responsePayload.IDToken,
				DisplayName: displayName,
			}
			errorResponse, err := s.call("https://identitytoolkit.googleapis.com/v1/accounts:update", updatePayload, nil)
			if err != nil {
				log.Error("profile update request failed: %v", err)
				http.Error(w, "Failed to set display name", http.StatusInternalServerError)
				return
			}
			if errorResponse != nil {
				respondError(w, errorResponse, "Failed to set display name")
				return
			}
		}

		respondJSON(w, responsePayload)
	}
}

// LoginRequestBody is the request body for the login endpoint
type LoginRequestBody struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

// LoginResponseBody is the response body for the login endpoint
type LoginResponseBody struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Registered   bool   `json:"registered"`
}

// HandleLogin handles requests to the login endpoint
// https://firebase.google.com/docs/reference/rest/auth#section-sign-in-email-password
func (s *FirebaseAuthHandler) HandleLogin() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.FormValue("email")
		password := r.FormValue("password")

		if email == "" {
			http.Error(w, "Missing email", http.StatusBadRequest)
			return
		}
		if password == "" {
			http.Error(w, "Missing password", http.StatusBadRequest)
			return
		}

		requestPayload := &LoginRequestBody{
			Email:             email,
			Password:          password,
			ReturnSecureToken: true,
		}
		responsePayload := &LoginResponseBody{}
		errorResponse, err := s.call("https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword", requestPayload, responsePayload)
		if err != nil {
			log.Error("login request failed: %v", err)
			http.Error(w, "Failed to login", http.StatusInternalServerError)
			return
		}
		if errorResponse != nil {
			respondError(w, errorResponse, "Failed to login")
			return
		}

		respondJSON(w, responsePayload)
	}
}

// RefreshRequestBody is the request body for the refresh endpoint
type RefreshRequestBody struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponseBody is the response body for the refresh endpoint
type RefreshResponseBody struct {
	ExpiresIn    string `json:"expires_in"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	UserID       string `json:"user_id"`
	ProjectID    string `json:"project_id"`
}

// HandleRefresh handles requests to the refresh endpoint
// https://firebase.google.com/docs/reference/rest/auth#section-refresh-token
func (s *FirebaseAuthHandler) HandleRefresh() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := r.FormValue("refreshToken")

		if refreshToken == "" {
			http.Error(w, "Missing refresh token", http.StatusBadRequest)
			return
		}

		requestPayload := &RefreshRequestBody{
			GrantType:    "refresh_token",
			RefreshToken: refreshToken,
		}
		responsePayload := &RefreshResponseBody{}
		errorResponse, err := s.call("https://securetoken.googleapis.com/v1/token", requestPayload, responsePayload)
		if err != nil {
			log.Error("refresh request failed: %v", err)
			http.Error(w, "Failed to refresh", http.StatusInternalServerError)
			return
		}
		if errorResponse != nil {
			respondError(w, errorResponse, "Failed to refresh")
			return
		}

		respondJSON(w, responsePayload)
	}
}

// DeleteRequestBody is the request body for the delete endpoint
type DeleteRequestBody struct {
	IDToken string `json:"idToken"`
}

// HandleDelete handles requests to the delete endpoint
// https://firebase.google.com/docs/reference/rest/auth#section-delete-account
func (s *FirebaseAuthHandler) HandleDelete() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		idToken := r.FormValue("idToken")

		if idToken == "" {
			http.Error(w, "Missing ID token", http.StatusBadRequest)
			return
		}

		requestPayload := &DeleteRequestBody{
			IDToken: idToken,
		}
		errorResponse, err := s.call("https://identitytoolkit.googleapis.com/v1/accounts:delete", requestPayload, nil)
		if err != nil {
			log.Error("delete request failed: %v", err)
			http.Error(w, "Failed to delete", http.StatusInternalServerError)
			return
		}
		if errorResponse != nil {
			respondError(w, errorResponse, "Failed to delete")
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
