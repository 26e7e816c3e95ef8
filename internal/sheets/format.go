package sheets

import (
	"google.golang.org/api/sheets/v4"
)

// currencyColumns lists the zero-based money columns of each tab.
var currencyColumns = map[string][]int64{
	TabExpenses:   {3},
	TabCategories: {1},
	TabMonthly:    {1},
	TabBudgets:    {2, 3, 4},
}

// formatRequests builds the batch update that styles every tab.
func formatRequests(sheetIDs map[string]int64, tabs map[string][][]any) []*sheets.Request {
	var requests []*sheets.Request

	for _, tab := range Tabs {
		sheetID, ok := sheetIDs[tab]
		if !ok {
			continue
		}
		rows := int64(len(tabs[tab]))
		width := int64(0)
		for _, row := range tabs[tab] {
			width = max(width, int64(len(row)))
		}

		if tab == TabSummary {
			requests = append(requests,
				boldRange(sheetID, 0, 1, 0, 2, 14),
				currencyRange(sheetID, 4, 5, 1),
				autoResize(sheetID, width),
			)
			continue
		}

		requests = append(requests, headerRow(sheetID), freezeHeader(sheetID))
		for _, col := range currencyColumns[tab] {
			requests = append(requests, currencyRange(sheetID, 1, rows, col))
		}
		if tab == TabCategories {
			requests = append(requests, percentRange(sheetID, 1, rows, 2))
		}
		requests = append(requests, autoResize(sheetID, width))
	}

	return requests
}

func headerRow(sheetID int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:       sheetID,
				StartRowIndex: 0,
				EndRowIndex:   1,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{
						Bold: true,
					},
					BackgroundColor: &sheets.Color{
						Red:   0.9,
						Green: 0.9,
						Blue:  0.9,
						Alpha: 1.0,
					},
				},
			},
			Fields: "userEnteredFormat.textFormat,userEnteredFormat.backgroundColor",
		},
	}
}

func boldRange(sheetID, startRow, endRow, startCol, endCol, fontSize int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{
						Bold:     true,
						FontSize: fontSize,
					},
				},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

func currencyRange(sheetID, startRow, endRow, col int64) *sheets.Request {
	return numberFormat(sheetID, startRow, endRow, col, "CURRENCY", "$#,##0.00")
}

func percentRange(sheetID, startRow, endRow, col int64) *sheets.Request {
	return numberFormat(sheetID, startRow, endRow, col, "PERCENT", "0.0%")
}

func numberFormat(sheetID, startRow, endRow, col int64, kind, pattern string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    startRow,
				EndRowIndex:      max(endRow, startRow+1),
				StartColumnIndex: col,
				EndColumnIndex:   col + 1,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{
						Type:    kind,
						Pattern: pattern,
					},
				},
			},
			Fields: "userEnteredFormat.numberFormat",
		},
	}
}

func freezeHeader(sheetID int64) *sheets.Request {
	return &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId: sheetID,
				GridProperties: &sheets.GridProperties{
					FrozenRowCount: 1,
				},
			},
			Fields: "gridProperties.frozenRowCount",
		},
	}
}

func autoResize(sheetID, columns int64) *sheets.Request {
	return &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   max(columns, 1),
			},
		},
	}
}
