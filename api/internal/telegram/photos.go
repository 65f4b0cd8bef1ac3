package telegram

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/store"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]
	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		r.SendError(cid, err)
		return
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath)
	imgBytes, err := download(url)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	go r.estimatePhoto(context.Background(), cid, imgBytes)
}

// estimatePhoto runs the full voted estimation for one photo and reports
// progress by editing a single status message.
func (r *Router) estimatePhoto(ctx context.Context, cid int64, imgBytes []byte) {
	hash := imageHash(imgBytes)

	// Re-sent photo inside the dedupe window: answer from history.
	if prev, err := r.Records.FindByHash(ctx, hash, dedupeWindow); err == nil {
		r.send(cid, "同じ写真の推定が履歴にあります:\n\n"+FormatRecord(&prev.Estimation))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("telegram: dedupe lookup: %v", err)
	}

	status, err := r.Bot.Send(tgbotapi.NewMessage(cid, "🚚 写真を受け付けました。解析中…"))
	if err != nil {
		log.Printf("telegram: send status: %v", err)
	}

	p := prefs(cid)
	runs := r.runsFor(p)

	var exemplars []estimate.GradedExemplar
	// Exemplar few-shot context only works with a known capacity class.
	if p.TruckClass != "" {
		if spec, ok := r.Tables.Truck(p.TruckClass); ok {
			if class, ok := r.Tables.CapacityClass(spec.MaxCapacity); ok {
				if labeled, err := r.Records.ListLabeled(ctx, 0); err == nil {
					exemplars = estimate.SelectExemplars(labeled, class, r.Tables)
				}
			}
		}
	}

	lastEdit := time.Time{}
	pipe := &estimate.Pipeline{
		Engine: r.Engine,
		Tables: r.Tables,
		Progress: func(u estimate.ProgressUpdate) {
			if status.MessageID == 0 || time.Since(lastEdit) < progressThrottle {
				return
			}
			lastEdit = time.Now()
			text := progressText(u, runs)
			_, _ = r.Bot.Send(tgbotapi.NewEditMessageText(cid, status.MessageID, text))
		},
	}

	rec, err := pipe.RunVoted(ctx, base64.StdEncoding.EncodeToString(imgBytes), vision.PickMIME("", "", imgBytes), runs, estimate.Options{
		TruckClass: p.TruckClass,
		Material:   p.Material,
		Exemplars:  exemplars,
	})
	if err != nil {
		r.SendError(cid, err)
		return
	}

	if err := r.Records.Insert(ctx, cid, hash, *rec); err != nil {
		log.Printf("telegram: insert record %s: %v", rec.ID, err)
	}

	if status.MessageID != 0 {
		_, _ = r.Bot.Send(tgbotapi.NewEditMessageText(cid, status.MessageID, FormatRecord(rec)))
		return
	}
	r.SendResult(cid, rec)
}

func progressText(u estimate.ProgressUpdate, runs int) string {
	label := map[string]string{
		estimate.PhaseClassify:  "車両判定",
		estimate.PhaseGeometry:  "スケール計測",
		estimate.PhaseFill:      "積載状態推定",
		estimate.PhaseCalculate: "体積計算",
		estimate.PhaseMerge:     "結果統合",
		estimate.PhaseDone:      "完了",
	}[u.Phase]
	if label == "" {
		label = u.Phase
	}
	text := "🔄 " + label
	if u.Total > 1 {
		text += fmt.Sprintf(" (%d/%d)", u.Run, u.Total)
	}
	if runs > 1 {
		text += fmt.Sprintf(" [%d回投票]", runs)
	}
	if u.Detail != "" {
		text += "\n" + u.Detail
	}
	return text
}

func imageHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func download(url string) ([]byte, error) {
	resp, err := httpClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
