package usecase

import (
	"bytes"
	"context"
	"net/http"
	"sort"
	"time"

	repo "app/internal/repository"

	"github.com/tealeg/xlsx"
)

// 需要予測の窓。無指定は7日、上限は90日で頭打ちにする。
const (
	defaultForecastWindowDays = 7
	maxForecastWindowDays     = 90
)

// 期限切れ、または24時間以内に期限が来る配送を至急扱いにする。
const urgentThreshold = 24 * time.Hour

type ForecastUsecase struct {
	tx repo.TransactionManager

	//テストで時刻を固定できるようにしておく
	nowFn func() time.Time
}

func NewForecastUsecase(tx repo.TransactionManager) *ForecastUsecase {
	return &ForecastUsecase{tx: tx, nowFn: time.Now}
}

type DailyForecastOutput struct {
	Date        string `json:"date"`
	Quantity    int64  `json:"quantity"`
	UrgentCount int64  `json:"urgent_count"`
}

type ProductForecastOutput struct {
	ProductID      int64                 `json:"product_id"`
	ProductName    string                `json:"product_name"`
	TotalQuantity  int64                 `json:"total_quantity"`
	DailyBreakdown []DailyForecastOutput `json:"daily_breakdown"`
}

// 確定待ち・確定済みの配送予定から商品別・日別の出荷量を集計する。
// 注文のステータスは見ない（予定だけが入力）。毎回その時点の時刻で計算し直す。
func (u *ForecastUsecase) StockForecast(ctx context.Context, windowDays int) ([]ProductForecastOutput, error) {
	if windowDays <= 0 {
		windowDays = defaultForecastWindowDays
	}
	if windowDays > maxForecastWindowDays {
		return []ProductForecastOutput{}, NewHTTPError(http.StatusBadRequest, "invalid window_days")
	}

	now := u.nowFn()
	from := now
	to := now.AddDate(0, 0, windowDays)

	var rows []repo.ForecastRow
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		rows, err = r.DeliveryPlans().ListForForecast(ctx, from, to)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return []ProductForecastOutput{}, err
	}

	return aggregateForecast(rows, now), nil
}

type dailyAgg struct {
	quantity int64
	urgent   int64
}

type productAgg struct {
	productID   int64
	productName string
	total       int64
	days        map[string]*dailyAgg
}

func aggregateForecast(rows []repo.ForecastRow, now time.Time) []ProductForecastOutput {
	byProduct := map[int64]*productAgg{}

	for _, row := range rows {
		agg, ok := byProduct[row.ProductID]
		if !ok {
			agg = &productAgg{
				productID:   row.ProductID,
				productName: row.ProductName,
				days:        map[string]*dailyAgg{},
			}
			byProduct[row.ProductID] = agg
		}

		day := row.DeliveryStartDate.Format("2006-01-02")
		d, ok := agg.days[day]
		if !ok {
			d = &dailyAgg{}
			agg.days[day] = d
		}

		agg.total += row.Quantity
		d.quantity += row.Quantity

		//期限超過、または期限まで24時間を切ったものは至急
		if !row.DeliveryEndDate.After(now) || row.DeliveryEndDate.Sub(now) <= urgentThreshold {
			d.urgent += row.Quantity
		}
	}

	outs := make([]ProductForecastOutput, 0, len(byProduct))
	for _, agg := range byProduct {
		daily := make([]DailyForecastOutput, 0, len(agg.days))
		for day, d := range agg.days {
			daily = append(daily, DailyForecastOutput{
				Date:        day,
				Quantity:    d.quantity,
				UrgentCount: d.urgent,
			})
		}
		//日付昇順
		sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

		outs = append(outs, ProductForecastOutput{
			ProductID:      agg.productID,
			ProductName:    agg.productName,
			TotalQuantity:  agg.total,
			DailyBreakdown: daily,
		})
	}

	//出力を安定させるため商品ID昇順
	sort.Slice(outs, func(i, j int) bool { return outs[i].ProductID < outs[j].ProductID })

	return outs
}

// 同じ集計を管理画面向けにExcelへ書き出す。
func (u *ForecastUsecase) ExportForecast(ctx context.Context, windowDays int) ([]byte, error) {
	forecasts, err := u.StockForecast(ctx, windowDays)
	if err != nil {
		return nil, err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Forecast")
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	headers := []string{"ProductID", "ProductName", "Date", "Quantity", "UrgentCount"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetValue(h)
	}

	for _, f := range forecasts {
		for _, d := range f.DailyBreakdown {
			row := sheet.AddRow()
			row.AddCell().SetValue(f.ProductID)
			row.AddCell().SetValue(f.ProductName)
			row.AddCell().SetValue(d.Date)
			row.AddCell().SetValue(d.Quantity)
			row.AddCell().SetValue(d.UrgentCount)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return buf.Bytes(), nil
}
