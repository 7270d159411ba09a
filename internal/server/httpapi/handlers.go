package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophmarket/internal/common"
	"github.com/dmitrijs2005/gophmarket/internal/server/models"
	"github.com/gorilla/mux"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *HTTPServer) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters, err := productFilters(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, pageSize, err := pageParams(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Catalog.ListProducts(r.Context(), filters, page, pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Catalog.GetProductWithOwner(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if p == nil {
		s.writeError(w, r, common.ErrorNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// createProduct stores a product owned by the caller; any userId in the body
// is ignored.
func (s *HTTPServer) createProduct(w http.ResponseWriter, r *http.Request) {
	var req models.NewProduct
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.UserID = currentUser(r).ID

	p, err := s.svc.Catalog.CreateProduct(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *HTTPServer) addFavorite(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Favorites.AddFavorite(r.Context(), currentUser(r).ID, mux.Vars(r)["productId"])
	s.writeUser(w, r, u, err)
}

func (s *HTTPServer) removeFavorite(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Favorites.RemoveFavorite(r.Context(), currentUser(r).ID, mux.Vars(r)["productId"])
	s.writeUser(w, r, u, err)
}

func (s *HTTPServer) writeUser(w http.ResponseWriter, r *http.Request, u *models.User, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// The caller was deleted after the token was checked.
	if u == nil {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// listConversations returns only the caller's own conversations; the
// aggregate read covers every user.
func (s *HTTPServer) listConversations(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Conversations.ListUsersWithConversations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	me := currentUser(r)
	own := []models.Conversation{}
	for _, u := range res {
		if u.ID == me.ID {
			own = u.Conversations
			break
		}
	}
	if own == nil {
		own = []models.Conversation{}
	}
	writeJSON(w, http.StatusOK, own)
}

type openConversationRequest struct {
	UserID string `json:"userId"`
}

type conversationResponse struct {
	ConversationID string `json:"conversationId"`
}

func (s *HTTPServer) openConversation(w http.ResponseWriter, r *http.Request) {
	var req openConversationRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.svc.Conversations.FindOrCreateConversation(r.Context(), currentUser(r).ID, req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversationResponse{ConversationID: id})
}

type messageRequest struct {
	Text           *string `json:"text"`
	Image          *string `json:"image"`
	ReceiverID     string  `json:"receiverId"`
	ConversationID string  `json:"conversationId"`
}

type messageResponse struct {
	MessageID string `json:"messageId"`
}

func (s *HTTPServer) createMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.svc.Conversations.CreateMessage(r.Context(), models.NewMessage{
		Text:           req.Text,
		Image:          req.Image,
		SenderID:       currentUser(r).ID,
		ReceiverID:     req.ReceiverID,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{MessageID: id})
}

type imageUploadRequest struct {
	ContentType string `json:"contentType"`
}

func (s *HTTPServer) createImageUpload(w http.ResponseWriter, r *http.Request) {
	var req imageUploadRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	up, err := s.svc.Media.CreateImageUpload(r.Context(), currentUser(r).ID, req.ContentType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, up)
}
