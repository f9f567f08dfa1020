package server

import (
	"github.com/Brownie44l1/webserver/internal/request"
	"github.com/Brownie44l1/webserver/internal/response"
)

// shouldCloseConnection determines if connection should be closed after this request
func shouldCloseConnection(req *request.Request, w *response.Writer) bool {
	// A failed write leaves the client with a partial response
	if w.HadError() {
		return true
	}

	return req.CloseConnection
}
