// Package telegram is the chat surface: photos in, tonnage estimates out.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/store"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

type Router struct {
	Bot     *tgbotapi.BotAPI
	Engine  vision.Engine
	Tables  *masterdata.Tables
	Records *store.RecordRepo

	// DefaultRuns is the voting run count used when a chat has not set /runs.
	DefaultRuns int
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		r.handleCommand(upd)
		return
	}

	// /actual の後に数値だけ送られてきた場合
	if awaitingActual(cid) && upd.Message.Text != "" {
		clearAwaitActual(cid)
		r.applyActualWeight(cid, upd.Message.Text)
		return
	}

	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(*upd.Message)
	}
}

func (r *Router) handleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	arg := strings.TrimSpace(upd.Message.CommandArguments())

	switch upd.Message.Command() {
	case "start":
		r.send(cid, "荷台の写真を送ってください。体積とトン数を推定します。\n"+
			"コマンド: /truck /material /runs /actual /health")
	case "health":
		r.send(cid, "✅ OK")
	case "truck":
		r.handleTruckCommand(cid, arg)
	case "material":
		r.handleMaterialCommand(cid, arg)
	case "runs":
		r.handleRunsCommand(cid, arg)
	case "actual":
		if arg == "" {
			setAwaitActual(cid)
			r.send(cid, "実測トン数を数値で送ってください (例: 3.2)")
			return
		}
		r.applyActualWeight(cid, arg)
	default:
		r.send(cid, "不明なコマンドです")
	}
}

// handleTruckCommand pins the truck class for the chat, or clears the pin
// with /truck auto.
func (r *Router) handleTruckCommand(cid int64, arg string) {
	p := prefs(cid)
	if arg == "" {
		cur := p.TruckClass
		if cur == "" {
			cur = "自動判定"
		}
		r.send(cid, "現在の車格: "+cur+"\n使い方: /truck {"+strings.Join(r.Tables.TruckClasses(), "|")+"|auto}")
		return
	}
	if strings.EqualFold(arg, "auto") {
		p.TruckClass = ""
		storePrefs(cid, p)
		r.send(cid, "✅ 車格を自動判定に戻しました")
		return
	}
	if _, ok := r.Tables.Truck(arg); !ok {
		r.send(cid, "❌ 未登録の車格です。登録済み: "+strings.Join(r.Tables.TruckClasses(), " "))
		return
	}
	p.TruckClass = arg
	storePrefs(cid, p)
	r.send(cid, "✅ 車格: "+arg)
}

func (r *Router) handleMaterialCommand(cid int64, arg string) {
	p := prefs(cid)
	if arg == "" {
		cur := p.Material
		if cur == "" {
			cur = "自動判定"
		}
		r.send(cid, "現在の材料: "+cur+"\n使い方: /material {"+strings.Join(r.Tables.MaterialNames(), "|")+"|auto}")
		return
	}
	if strings.EqualFold(arg, "auto") {
		p.Material = ""
		storePrefs(cid, p)
		r.send(cid, "✅ 材料を自動判定に戻しました")
		return
	}
	if _, _, ok := r.Tables.Density(arg); !ok {
		r.send(cid, "❌ 未登録の材料です。登録済み: "+strings.Join(r.Tables.MaterialNames(), " "))
		return
	}
	p.Material = arg
	storePrefs(cid, p)
	r.send(cid, "✅ 材料: "+arg)
}

func (r *Router) handleRunsCommand(cid int64, arg string) {
	p := prefs(cid)
	if arg == "" {
		r.send(cid, fmt.Sprintf("現在の実行回数: %d\n使い方: /runs {1..5}", r.runsFor(p)))
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > 5 {
		r.send(cid, "❌ 1〜5 の整数で指定してください")
		return
	}
	p.Runs = n
	storePrefs(cid, p)
	r.send(cid, fmt.Sprintf("✅ 実行回数: %d", n))
}

// applyActualWeight attaches a ground-truth weight to the chat's newest
// estimation, feeding the exemplar history.
func (r *Router) applyActualWeight(cid int64, arg string) {
	w, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || w <= 0 {
		r.send(cid, "❌ 正の数値で指定してください (例: /actual 3.2)")
		return
	}
	ctx := context.Background()
	rec, err := r.Records.LastForChat(ctx, cid)
	if err != nil {
		r.send(cid, "❌ このチャットの推定履歴が見つかりません。先に写真を送ってください。")
		return
	}
	if err := r.Records.SetActualWeight(ctx, rec.ID, w); err != nil {
		r.SendError(cid, err)
		return
	}
	diff := w - rec.Estimation.Calc.Tonnage
	r.send(cid, fmt.Sprintf("✅ 実測 %.2ft を記録しました (推定 %.2ft, 差 %+.2ft)", w, rec.Estimation.Calc.Tonnage, diff))
}

func (r *Router) runsFor(p chatPrefs) int {
	if p.Runs > 0 {
		return p.Runs
	}
	if r.DefaultRuns > 0 {
		return r.DefaultRuns
	}
	return 1
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = r.Bot.Send(msg)
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("エラー: %v", err))
}

// SendResult renders one finished record into the chat.
func (r *Router) SendResult(chatID int64, rec *estimate.EstimationRecord) {
	r.send(chatID, FormatRecord(rec))
}
