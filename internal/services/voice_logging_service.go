package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// VoiceLoggingService transcribes spoken activity notes ("I drove 12
// kilometers") and turns them into estimator suggestions the client can
// confirm before recording.
type VoiceLoggingService struct {
	client    *speech.Client
	estimator *EstimatorService
}

type TranscribeRequest struct {
	Audio        string `json:"audio" validate:"required"`
	Encoding     string `json:"encoding"`
	SampleRate   int    `json:"sample_rate"`
	LanguageCode string `json:"language_code"`
}

type TranscribeResponse struct {
	Transcript string    `json:"transcript"`
	Confidence float32   `json:"confidence"`
	Duration   float64   `json:"duration_seconds"`
	Suggestion *Estimate `json:"suggestion,omitempty"`
}

func NewVoiceLoggingService(estimator *EstimatorService) *VoiceLoggingService {
	ctx := context.Background()
	client, err := speech.NewClient(ctx)
	if err != nil {
		log.Printf("Warning: Failed to initialize speech client: %v", err)
		return &VoiceLoggingService{client: nil, estimator: estimator}
	}
	return &VoiceLoggingService{client: client, estimator: estimator}
}

// TranscribeActivity transcribes a voice note into an activity suggestion
// @Summary Transcribe a voice activity note
// @Description Transcribe audio and parse it into a footprint activity suggestion
// @Tags footprint
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TranscribeRequest true "Audio payload"
// @Success 200 {object} TranscribeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /activities/voice-transcribe [post]
func (s *VoiceLoggingService) TranscribeActivity(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 10 * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req TranscribeRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if req.Audio == "" {
		SendErrorResponse(w, "Audio is required", http.StatusBadRequest, nil)
		return
	}

	if req.Encoding == "" {
		req.Encoding = "LINEAR16"
	}
	if req.SampleRate == 0 {
		req.SampleRate = 16000
	}
	if req.LanguageCode == "" {
		req.LanguageCode = "en-US"
	}

	startTime := time.Now()
	transcript, confidence, err := s.Transcribe(r.Context(), req)
	duration := time.Since(startTime).Seconds()

	if err != nil {
		log.Printf("[VOICE] Transcription failed for account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to transcribe audio", http.StatusInternalServerError, nil)
		return
	}

	suggestion := s.ParseActivity(transcript)

	log.Printf("[VOICE] Transcription successful for account %s, confidence: %.2f", accountID, confidence)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TranscribeResponse{
		Transcript: transcript,
		Confidence: confidence,
		Duration:   duration,
		Suggestion: suggestion,
	})
}

func (s *VoiceLoggingService) Transcribe(ctx context.Context, req TranscribeRequest) (string, float32, error) {
	if s.client == nil {
		return s.mockTranscribe(req)
	}

	audioBytes, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode audio: %w", err)
	}

	if len(audioBytes) == 0 {
		return "", 0, errors.New("audio data is empty")
	}

	encoding, err := parseEncoding(req.Encoding)
	if err != nil {
		return "", 0, err
	}

	speechReq := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            int32(req.SampleRate),
			LanguageCode:               req.LanguageCode,
			EnableAutomaticPunctuation: true,
			Model:                      "latest_long",
			UseEnhanced:                true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audioBytes,
			},
		},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := s.client.Recognize(timeoutCtx, speechReq)
	if err != nil {
		return "", 0, fmt.Errorf("recognition failed: %w", err)
	}

	if len(resp.Results) == 0 {
		return "", 0, errors.New("no transcription results")
	}

	var transcript strings.Builder
	var totalConfidence float32
	var count int

	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			alternative := result.Alternatives[0]
			transcript.WriteString(alternative.Transcript)
			transcript.WriteString(" ")
			totalConfidence += alternative.Confidence
			count++
		}
	}

	if count == 0 {
		return "", 0, errors.New("no alternatives in results")
	}

	avgConfidence := totalConfidence / float32(count)
	finalTranscript := strings.TrimSpace(transcript.String())
	return finalTranscript, avgConfidence, nil
}

// voice note grammars, e.g. "drove 12 km", "took the bus 3.5 kilometers",
// "used 8 kwh"
var (
	distancePattern = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(?:km|kilometers?)`)
	energyPattern   = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(?:kwh|kilowatt\s*hours?)`)
)

var voiceModeKeywords = map[string]string{
	"drove":    "Car",
	"drive":    "Car",
	"car":      "Car",
	"cycled":   "Bike",
	"bike":     "Bike",
	"walked":   "Walking",
	"walk":     "Walking",
	"bus":      "Bus",
	"metro":    "Metro",
	"train":    "TGV",
	"tram":     "Tramway",
	"scooter":  "Scooter",
	"flew":     "Airplane",
	"flight":   "Airplane",
	"airplane": "Airplane",
}

// ParseActivity extracts a best-effort activity suggestion from a
// transcript, or nil when nothing recognizable is found.
func (s *VoiceLoggingService) ParseActivity(transcript string) *Estimate {
	lower := strings.ToLower(transcript)

	if m := energyPattern.FindStringSubmatch(lower); m != nil {
		kwh, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			if est, err := s.estimator.EstimateEnergy(kwh); err == nil {
				return &est
			}
		}
	}

	m := distancePattern.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	distance, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}

	for keyword, mode := range voiceModeKeywords {
		if strings.Contains(lower, keyword) {
			if est, err := s.estimator.EstimateTransport(mode, distance); err == nil {
				return &est
			}
		}
	}
	return nil
}

func parseEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToUpper(encoding) {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

func (s *VoiceLoggingService) mockTranscribe(req TranscribeRequest) (string, float32, error) {
	audioBytes, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode audio: %w", err)
	}

	if len(audioBytes) == 0 {
		return "", 0, errors.New("audio data is empty")
	}

	return "Mock transcription: I drove 12 km", 0.95, nil
}

func (s *VoiceLoggingService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
