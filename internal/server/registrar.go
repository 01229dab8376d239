package server

import "github.com/gin-gonic/gin"

// Registrar is the common interface feature packages implement to attach
// their routes. public skips authentication, authed requires a valid bearer
// token.
type Registrar interface {
	Register(public, authed *gin.RouterGroup)
}
