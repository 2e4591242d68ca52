package webportal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"strings"
	"time"

	"portalwatch/lib/restyutil"
	"portalwatch/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/webportal")

var (
	ErrBadLogin       = errors.New("portal rejected the login credentials")
	ErrSessionExpired = errors.New("portal session expired")
)

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	BaseUrl string
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, "scrapers/webportal/http")

	return &Client{http: client}, nil
}

// the envelope every portal endpoint wraps its payload in
type apiResponse struct {
	Status struct {
		ResponseStatus string `json:"responseStatus"`
		ErrorMessage   string `json:"errors"`
	} `json:"status"`
	Response json.RawMessage `json:"response"`
}

func (c *Client) call(ctx context.Context, s Session, path string, body any, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeaders(s.headers()).
		SetBody(body)

	res, err := req.Post(path)
	if err != nil {
		return err
	}
	if res.StatusCode() == 401 {
		return ErrSessionExpired
	}
	if res.IsError() {
		return fmt.Errorf("portal returned status %d for %s", res.StatusCode(), path)
	}

	var envelope apiResponse
	err = json.Unmarshal(res.Body(), &envelope)
	if err != nil {
		return fmt.Errorf("decode portal response for %s: %w", path, err)
	}
	if envelope.Status.ResponseStatus != "Success" {
		message := envelope.Status.ErrorMessage
		if strings.Contains(strings.ToLower(message), "session") {
			return ErrSessionExpired
		}
		return fmt.Errorf("portal error for %s: %s", path, message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Response, out)
}

type Captcha struct {
	// rendered challenge image, empty when the portal accepts the
	// well-known default answer
	Image []byte
	// opaque id echoed back alongside the answer
	Hidden string
}

func (c *Client) Captcha(ctx context.Context) (Captcha, error) {
	ctx, span := tracer.Start(ctx, "client:Captcha")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Post("token/getcaptcha")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch captcha")
		return Captcha{}, err
	}

	var envelope apiResponse
	err = json.Unmarshal(res.Body(), &envelope)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode captcha response")
		return Captcha{}, err
	}

	var payload struct {
		Captcha struct {
			Image  string `json:"image"`
			Hidden string `json:"hidden"`
		} `json:"captcha"`
	}
	err = json.Unmarshal(envelope.Response, &payload)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode captcha payload")
		return Captcha{}, err
	}

	var image []byte
	if payload.Captcha.Image != "" {
		image, err = base64.StdEncoding.DecodeString(payload.Captcha.Image)
		if err != nil {
			span.SetStatus(codes.Error, "failed to decode captcha image")
			return Captcha{}, err
		}
	}
	return Captcha{Image: image, Hidden: payload.Captcha.Hidden}, nil
}

type Session struct {
	ClientId    string
	MemberId    string
	InstituteId string
	Token       string
	IssuedAt    time.Time
}

func (s Session) headers() map[string]string {
	if s.Token == "" {
		return nil
	}
	return map[string]string{
		"Authorization": "Bearer " + s.Token,
		"Memberid":      s.MemberId,
		"Localname":     s.InstituteId,
	}
}

func (s Session) Headers() map[string]string {
	return s.headers()
}

func (c *Client) Login(ctx context.Context, username, password string, captcha Captcha, answer string) (Session, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	clientId := uuid.NewString()

	body := map[string]any{
		"LoginId":          username,
		"passwordotpvalue": password,
		"Modulename":       "STUDENTMODULE",
		"clientid":         clientId,
		"captcha": map[string]string{
			"captcha": answer,
			"hidden":  captcha.Hidden,
		},
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("token/generate-token1")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login request failed")
		return Session{}, err
	}
	if res.StatusCode() == 401 {
		span.SetStatus(codes.Error, "bad credentials")
		return Session{}, ErrBadLogin
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "unexpected login status")
		return Session{}, fmt.Errorf("login returned status %d", res.StatusCode())
	}

	var envelope apiResponse
	err = json.Unmarshal(res.Body(), &envelope)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode login response")
		return Session{}, err
	}
	if envelope.Status.ResponseStatus != "Success" {
		span.SetStatus(codes.Error, "login rejected")
		return Session{}, ErrBadLogin
	}

	var payload struct {
		Regdata struct {
			MemberId      string `json:"memberid"`
			Token         string `json:"token"`
			InstituteList []struct {
				Value string `json:"value"`
			} `json:"institutelist"`
		} `json:"regdata"`
	}
	err = json.Unmarshal(envelope.Response, &payload)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode login payload")
		return Session{}, err
	}
	if payload.Regdata.Token == "" {
		span.SetStatus(codes.Error, "login response missing token")
		return Session{}, ErrBadLogin
	}

	session := Session{
		ClientId: clientId,
		MemberId: payload.Regdata.MemberId,
		Token:    payload.Regdata.Token,
		IssuedAt: timezone.Now(),
	}
	if len(payload.Regdata.InstituteList) > 0 {
		session.InstituteId = payload.Regdata.InstituteList[0].Value
	}
	return session, nil
}
