package handle

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision/mock"
)

func f(v float64) *float64 { return &v }

func testImageB64() string {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3, 4}
	return base64.StdEncoding.EncodeToString(jpeg)
}

func queuedEngine() *mock.Engine {
	eng := mock.New()
	eng.QueueClassify(vision.ClassifyResponse{
		CargoDetected: true,
		VehicleType:   "dump-truck",
		TruckClass:    "4t",
		Material:      "土砂",
		MaxCapacityT:  4.0,
		Confidence:    0.9,
	}, nil)
	eng.QueueGeometry(vision.GeometryResponse{
		TailgateTopY:    f(0.5),
		TailgateBottomY: f(0.7),
		CargoTopY:       f(0.45),
	}, nil)
	eng.QueueFill(vision.FillResponse{
		FillRatioL: 0.8, FillRatioW: 0.7, TaperRatio: 0.85, PackingDensity: 0.75,
	}, nil)
	return eng
}

func postEstimate(t *testing.T, h *Handle, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/estimate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Estimate(rr, req)
	return rr
}

func TestEstimateHandler(t *testing.T) {
	h := New(queuedEngine(), masterdata.Default(), nil)

	body, _ := json.Marshal(EstimateRequest{ImageB64: testImageB64(), Ensemble: 1})
	rr := postEstimate(t, h, string(body))
	require.Equal(t, http.StatusOK, rr.Code)

	var rec estimate.EstimationRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.True(t, rec.CargoDetected)
	assert.Equal(t, "4t", rec.TruckClass)
	assert.Positive(t, rec.Calc.Tonnage)
}

func TestEstimateHandlerDataURL(t *testing.T) {
	h := New(queuedEngine(), masterdata.Default(), nil)

	body, _ := json.Marshal(EstimateRequest{ImageB64: "data:image/jpeg;base64," + testImageB64(), Ensemble: 1})
	rr := postEstimate(t, h, string(body))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestEstimateHandlerBadInput(t *testing.T) {
	h := New(mock.New(), masterdata.Default(), nil)

	assert.Equal(t, http.StatusBadRequest, postEstimate(t, h, "{not json").Code)
	assert.Equal(t, http.StatusBadRequest, postEstimate(t, h, `{"image_b64":"%%%"}`).Code)

	body, _ := json.Marshal(EstimateRequest{ImageB64: testImageB64(), TruckClass: "25t"})
	assert.Equal(t, http.StatusBadRequest, postEstimate(t, h, string(body)).Code)
}

func TestEstimateHandlerMethodNotAllowed(t *testing.T) {
	h := New(mock.New(), masterdata.Default(), nil)
	req := httptest.NewRequest(http.MethodGet, "/estimate", nil)
	rr := httptest.NewRecorder()
	h.Estimate(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestEstimateHandlerEngineFailure(t *testing.T) {
	eng := mock.New()
	eng.QueueClassify(vision.ClassifyResponse{}, assert.AnError)
	h := New(eng, masterdata.Default(), nil)

	body, _ := json.Marshal(EstimateRequest{ImageB64: testImageB64(), Ensemble: 1})
	assert.Equal(t, http.StatusBadGateway, postEstimate(t, h, string(body)).Code)
}

func TestActualHandlerWithoutStore(t *testing.T) {
	h := New(mock.New(), masterdata.Default(), nil)
	req := httptest.NewRequest(http.MethodPost, "/actual", strings.NewReader(`{"record_id":"x","actual_weight_t":1}`))
	rr := httptest.NewRecorder()
	h.Actual(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestExemplarsHandlerRequiresClass(t *testing.T) {
	h := New(mock.New(), masterdata.Default(), nil)
	req := httptest.NewRequest(http.MethodGet, "/exemplars", nil)
	rr := httptest.NewRecorder()
	h.Exemplars(rr, req)
	// records nil short-circuits before the class check
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
