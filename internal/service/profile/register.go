package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/repository"
	"github.com/emberapp/ember-server/internal/server"
)

// Registrar ties the account/profile endpoints into the HTTP server.
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(public, authed *gin.RouterGroup) {
	svc := NewService(r.appCtx)

	public.POST("/auth/signup", signupHandler(svc))
	public.POST("/auth/login", loginHandler(svc))
	public.GET("/push/vapid-key", vapidKeyHandler(r.appCtx))

	authed.GET("/me", meHandler(svc))
	authed.PUT("/me", saveHandler(svc))
	authed.PUT("/me/location", locationHandler(svc))
	authed.POST("/me/push", pushHandler(svc))
	authed.POST("/me/photos", photoHandler(svc))
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func signupHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sess, err := svc.Signup(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"userId": sess.UserID, "token": sess.Token})
	}
}

func loginHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sess, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": sess.UserID, "token": sess.Token})
	}
}

func vapidKeyHandler(appCtx *app.AppContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := appCtx.Cfg.Push.VAPIDPublicKey
		if key == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "push is not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"publicKey": key})
	}
}

func meHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Get(c.Request.Context(), server.UserID(c))
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, server.ProfileJSON(u))
	}
}

type saveRequest struct {
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	BirthDate        string   `json:"birthDate"`
	GenderPreference string   `json:"genderPreference"`
	Photos           []string `json:"photos"`
	Interests        []string `json:"interests"`
	About            string   `json:"about"`
}

func saveHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := svc.Save(c.Request.Context(), server.UserID(c), repository.ProfileFields{
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			BirthDate:        req.BirthDate,
			GenderPreference: req.GenderPreference,
			Photos:           req.Photos,
			Interests:        req.Interests,
			About:            req.About,
		})
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "profile saved"})
	}
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

func locationHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req locationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.UpdateLocation(c.Request.Context(), server.UserID(c), req.Latitude, req.Longitude); err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "location updated"})
	}
}

func pushHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// the subscription payload is stored verbatim and only interpreted
		// at delivery time
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}
		if err := svc.RegisterPushSubscription(c.Request.Context(), server.UserID(c), string(raw)); err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "push subscription saved"})
	}
}

func photoHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
			return
		}
		defer file.Close()

		url, err := svc.UploadPhoto(c.Request.Context(), server.UserID(c), file, header.Filename)
		if err != nil {
			server.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"url": url})
	}
}
