package models

// Stats summarises the rows a source holds. Distinct counts ignore blank values.
type Stats struct {
	TotalRecords     int64 `json:"total_records"`
	UniqueLotNumbers int64 `json:"unique_lot_numbers"`
	UniqueModels     int64 `json:"unique_models"`
	UniquePartCodes  int64 `json:"unique_part_codes"`
	UniqueTickets    int64 `json:"unique_tickets"`
}

// StatsColumns are the columns counted distinctly, in Stats field order.
var StatsColumns = []string{ColumnLotNo, ColumnModel, ColumnPartCode, ColumnTicketNo}
