package controllers

import (
	"net/http"

	"github.com/vendalink/affiliates-backend/api/middleware"
	"github.com/vendalink/affiliates-backend/api/responses"
)

func pingPayload(r *http.Request, scope string) map[string]string {
	payload := map[string]string{"scope": scope, "status": "ok"}
	if store := middleware.StoreIDFromContext(r.Context()); store != "" {
		payload["store_id"] = store
	}
	return payload
}

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, pingPayload(r, "private"))
	}
}

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, pingPayload(r, "admin"))
	}
}
