package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/cyberguard/internal/server/passwords"
)

type passwordCheckRequest struct {
	Password string `json:"password"`
}

type passwordResponse struct {
	Password string `json:"password"`
}

func (s *Server) handlePasswordCheck(w http.ResponseWriter, r *http.Request) {
	var req passwordCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	writeJSON(w, http.StatusOK, passwords.CheckStrength(req.Password))
}

// handlePasswordGenerate reads length plus one switch per class. A class is
// disabled only by the literal value "false".
func (s *Server) handlePasswordGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := passwords.Options{
		Length:  passwords.DefaultLength,
		Upper:   q.Get("uppercase") != "false",
		Lower:   q.Get("lowercase") != "false",
		Numbers: q.Get("numbers") != "false",
		Symbols: q.Get("symbols") != "false",
	}
	if q.Has("length") {
		opts.Length = passwords.ParseLength(q.Get("length"))
	}

	pw, err := passwords.Generate(opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, passwordResponse{Password: pw})
}
