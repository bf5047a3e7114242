package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"chamba/internal/auth"

	"gorm.io/gorm"
)

type AuthHandler struct {
	DB  *gorm.DB
	JWT *auth.JWT
}

type registerReq struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Phone          string `json:"phone"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "name, email and a password of 8+ characters are required")
		return
	}

	role := auth.Role(strings.TrimSpace(req.Role))
	if role != auth.RoleEmployer && role != auth.RoleWorker {
		writeError(w, http.StatusBadRequest, "role must be employer or worker")
		return
	}

	u := auth.User{Name: req.Name, Email: req.Email, Role: role}
	if p := strings.TrimSpace(req.Phone); p != "" {
		u.Phone = &p
	}

	// employers must identify themselves with DNI or RUC
	if role == auth.RoleEmployer {
		docType := strings.TrimSpace(strings.ToUpper(req.DocumentType))
		docNum := strings.TrimSpace(req.DocumentNumber)
		if docType == "" || docNum == "" {
			writeError(w, http.StatusBadRequest, "employers must provide a DNI or RUC")
			return
		}
		switch docType {
		case auth.DocumentDNI:
			if len(docNum) != 8 {
				writeError(w, http.StatusBadRequest, "DNI must have 8 digits")
				return
			}
		case auth.DocumentRUC:
			if len(docNum) != 11 {
				writeError(w, http.StatusBadRequest, "RUC must have 11 digits")
				return
			}
		default:
			writeError(w, http.StatusBadRequest, "document_type must be DNI or RUC")
			return
		}

		var count int64
		if err := h.DB.Model(&auth.User{}).
			Where("document_number = ? AND role = ?", docNum, auth.RoleEmployer).
			Count(&count).Error; err != nil {
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		if count > 0 {
			writeError(w, http.StatusBadRequest, "document already registered")
			return
		}

		u.DocumentType = &docType
		u.DocumentNumber = &docNum
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	u.PasswordHash = hash

	if err := h.DB.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeError(w, http.StatusConflict, "email already used")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	token, err := h.JWT.Sign(u.ID, u.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  u,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid input")
		return
	}

	var u auth.User
	if err := h.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !auth.ComparePassword(u.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.JWT.Sign(u.ID, u.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u,
	})
}
