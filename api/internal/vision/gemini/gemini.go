// Package gemini implements the vision engine on Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/jsonx"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// SetModel switches the default model (used by the /engine chat command).
func (e *Engine) SetModel(m string) {
	if s := strings.TrimSpace(m); s != "" {
		e.Model = s
	}
}

const classifyPrompt = `Output ONLY JSON: {"cargoDetected":true,"vehicleType":"...","truckClass":"...","material":"...","plateRegion":"...","plateNumber":"...","maxCapacityT":0.0,"confidence":0.0} ` +
	"This is a rear view photo at a construction site. " +
	"cargoDetected = true only if a truck bed loaded with bulk material is visible. " +
	"vehicleType = short category (dump-truck, flatbed, other). " +
	"truckClass = Japanese tonnage class: 2t | 4t | 10t. " +
	"material = cargo material name: 土砂 | As殻 | Co殻 | 開粒度As殻. " +
	"plateRegion / plateNumber = license plate region text and serial number, empty string if unreadable. " +
	"maxCapacityT = nominal maximum capacity in tonnes for the class. " +
	"confidence = your overall confidence 0.0-1.0."

const geometryPrompt = `Output ONLY JSON: {"plateBox":[x1,y1,x2,y2], "tailgateTopY": 0.0, "tailgateBottomY": 0.0, "cargoTopY": 0.0} ` +
	"This is a rear view of a dump truck carrying construction debris. " +
	"plateBox = bounding box of the rear license plate (normalized 0-1, [left,top,right,bottom]). " +
	"tailgateTopY = Y coordinate (normalized 0-1) of the TOP edge of the tailgate (後板上端/rim). " +
	"tailgateBottomY = Y coordinate (normalized 0-1) of the BOTTOM edge of the tailgate (後板下端). " +
	"cargoTopY = Y coordinate (normalized 0-1) of the HIGHEST point of the cargo pile. " +
	"The tailgate is the flat metal panel at the rear of the truck bed. " +
	"tailgateTopY < tailgateBottomY < plateBox[3] (top has smaller Y). " +
	"cargoTopY < tailgateTopY if cargo is heaped above the rim. " +
	"cargoTopY > tailgateTopY if cargo is below the rim. " +
	"Omit any field you cannot locate. All coordinates normalized 0.0-1.0."

const fillPromptTemplate = `Output ONLY JSON: {"fillRatioL": 0.0, "fillRatioW": 0.0, "taperRatio": 0.0, "packingDensity": 0.0, "reasoning": "..."} ` +
	"This is a rear view of a dump truck carrying %s. " +
	"Estimate each parameter INDEPENDENTLY: " +
	"fillRatioL (0.3~0.9): fraction of the bed LENGTH occupied by cargo. " +
	"Dump trucks are loaded from above; cargo forms a mound that rarely reaches the very front/rear. " +
	"Full load with cargo touching both ends = 0.85-0.9. Normal load = 0.6-0.8. Light load = 0.4-0.6. " +
	"fillRatioW (0.5~1.0): fraction of the bed WIDTH covered by cargo at the top surface. " +
	"Usually 0.8-1.0 since cargo spreads across the width. " +
	"taperRatio (0.5~1.0): how strongly the mound tapers toward its peak. " +
	"Flat-topped load = 0.95-1.0, gentle mound = 0.8-0.9, sharp cone = 0.5-0.7. " +
	"packingDensity (0.5~0.9): how tightly packed the material is. " +
	"Large chunks thrown in loosely with visible gaps = 0.5-0.6, moderate = 0.65-0.7, tightly packed = 0.8-0.9. " +
	"reasoning = one short sentence per parameter."

func (e *Engine) ClassifyVehicle(ctx context.Context, in vision.ClassifyRequest) (vision.ClassifyResponse, error) {
	prompt := classifyPrompt
	if ex := strings.TrimSpace(in.Exemplars); ex != "" {
		prompt += "\n\nReference examples from past ground-truth loads:\n" + ex
	}
	var out vision.ClassifyResponse
	if err := e.generate(ctx, "classify", prompt, in.ImageB64, in.MIME, &out); err != nil {
		return vision.ClassifyResponse{}, err
	}
	return out, nil
}

func (e *Engine) DetectGeometry(ctx context.Context, in vision.GeometryRequest) (vision.GeometryResponse, error) {
	var out vision.GeometryResponse
	if err := e.generate(ctx, "geometry", geometryPrompt, in.ImageB64, in.MIME, &out); err != nil {
		return vision.GeometryResponse{}, err
	}
	return out, nil
}

func (e *Engine) EstimateFill(ctx context.Context, in vision.FillRequest) (vision.FillResponse, error) {
	material := strings.TrimSpace(in.Material)
	if material == "" {
		material = "construction debris"
	}
	prompt := fmt.Sprintf(fillPromptTemplate, material)
	if ex := strings.TrimSpace(in.Exemplars); ex != "" {
		prompt += "\n\nReference examples from past ground-truth loads:\n" + ex
	}
	var out vision.FillResponse
	if err := e.generate(ctx, "fill", prompt, in.ImageB64, in.MIME, &out); err != nil {
		return vision.FillResponse{}, err
	}
	return out, nil
}

// generate runs one model call: image + prompt in, one JSON object out.
// Transient failures are retried up to 3 times with a linear backoff.
func (e *Engine) generate(ctx context.Context, op, prompt, imageB64, mime string, out any) error {
	if e.APIKey == "" {
		return errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return err
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(e.Model))
	if m == nil {
		return fmt.Errorf("gemini %s: model is nil", op)
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	imgBytes, mimeFromDataURL, err := vision.DecodeBase64MaybeDataURL(imageB64)
	if err != nil {
		return fmt.Errorf("gemini %s: bad base64: %w", op, err)
	}
	finalMIME := vision.PickMIME(mime, mimeFromDataURL, imgBytes)

	parts := []genai.Part{
		genai.Text(prompt),
		&genai.Blob{MIMEType: finalMIME, Data: imgBytes},
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return fmt.Errorf("gemini %s: %w", op, vision.ErrEmptyResponse)
		}
		if err := jsonx.DecodeObject(txt, out); err != nil {
			return fmt.Errorf("gemini %s: %w", op, err)
		}
		return nil
	}
	return lastErr
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
