package endpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxSupportImages = 10

type SupportRequestForm struct {
	FirstName   string `form:"first_name" json:"first_name" binding:"required,min=1,max=55" example:"Juan"`
	LastName    string `form:"last_name" json:"last_name" binding:"required,min=1,max=55" example:"Perez"`
	PhoneNumber string `form:"phone_number" json:"phone_number" binding:"max=30"`
	Email       string `form:"email" json:"email" binding:"required,email" example:"juan@mail.com"`
	IssueDetail string `form:"issue_detail" json:"issue_detail" binding:"max=1000"`
}

// CreateSupportRequest godoc
// @Summary      Open a support request
// @Description  Accepts up to 10 jpeg or png images of at most 10MB each. The support inbox is notified by email.
// @Tags         Support
// @Accept       multipart/form-data
// @Produce      json
// @Param        first_name   formData string true  "First name"
// @Param        last_name    formData string true  "Last name"
// @Param        phone_number formData string false "Phone number"
// @Param        email        formData string true  "Email"
// @Param        issue_detail formData string false "Issue detail"
// @Param        images       formData file   false "Screenshots"
// @Success      201 {object} util.APIResponse{data=model.SupportRequest} "Support request created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Router       /support [post]
func CreateSupportRequest(c *gin.Context) {
	var form SupportRequestForm
	if !bindOrRespond(c, &form, "Invalid request payload") {
		return
	}
	paths, ok := saveSupportImages(c)
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	req := model.SupportRequest{
		FirstName:   util.NormalizeName(form.FirstName),
		LastName:    util.NormalizeName(form.LastName),
		PhoneNumber: form.PhoneNumber,
		Email:       form.Email,
		IssueDetail: form.IssueDetail,
	}
	for _, p := range paths {
		req.Images = append(req.Images, model.SupportImage{ImagePath: p})
	}
	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&req).Error
	}); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create support request", Err: err})
		return
	}

	notifySupport(c, req, paths)
	util.CallCreated(c, util.APISuccessParams{Msg: "Support request created successfully", Data: req})
}

func saveSupportImages(c *gin.Context) ([]string, bool) {
	mf, err := c.MultipartForm()
	if err != nil || mf == nil {
		// JSON or urlencoded bodies carry no images.
		return nil, true
	}
	files := mf.File["images"]
	if len(files) > maxSupportImages {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: fmt.Errorf("at most %d images are allowed", maxSupportImages)})
		return nil, false
	}
	dir := uploadDir(c)
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		p, err := util.SaveImage(fh, dir)
		if errors.Is(err, util.ErrImageTooLarge) || errors.Is(err, util.ErrImageType) {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid image", Err: err})
			return nil, false
		}
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to save image", Err: err})
			return nil, false
		}
		paths = append(paths, p)
	}
	return paths, true
}

// notifySupport mails the support inbox. Failures are only logged.
func notifySupport(c *gin.Context, req model.SupportRequest, images []string) {
	s := middleware.GetServices(c)
	if s == nil || s.Mailer == nil || s.Config == nil || s.Config.SupportEmail == "" {
		return
	}
	msg, err := notify.SupportEmail{
		To:     s.Config.SupportEmail,
		ID:     req.ID,
		Name:   req.FirstName + " " + req.LastName,
		Email:  req.Email,
		Phone:  req.PhoneNumber,
		Body:   req.IssueDetail,
		Images: images,
	}.Message()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		err = s.Mailer.Send(ctx, msg)
	}
	if err != nil {
		util.Logger().Error().Err(err).Uint("support_request_id", req.ID).Msg("support email failed")
	}
}

// ListSupportRequests godoc
// @Summary      List support requests
// @Tags         Support
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.SupportRequest} "Support requests retrieved"
// @Router       /support [get]
func ListSupportRequests(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var out []model.SupportRequest
	if err := db.Order("created_at DESC").Find(&out).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve support requests", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Support requests retrieved", Data: out})
}

// GetSupportRequest godoc
// @Summary      Get support request with images
// @Tags         Support
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Support request ID"
// @Success      200 {object} util.APIResponse{data=model.SupportRequest} "Support request retrieved"
// @Failure      404 {object} util.APIResponse "Support request not found"
// @Router       /support/{id} [get]
func GetSupportRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	var req model.SupportRequest
	if err := db.Preload("Images").First(&req, id).Error; err != nil {
		respondDBError(c, err, "Support request not found", "Failed to retrieve support request")
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Support request retrieved", Data: req})
}
