// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package data

// StatementHeader holds the identity fields shared by every financial
// statement returned by FMP
type StatementHeader struct {
	Date             string `json:"date" csv:"date" db:"date"`
	Symbol           string `json:"symbol" csv:"symbol" db:"symbol"`
	ReportedCurrency string `json:"reportedCurrency" csv:"reportedCurrency" db:"reported_currency"`
	CIK              string `json:"cik" csv:"cik" db:"cik"`
	FilingDate       string `json:"filingDate" csv:"filingDate" db:"filing_date"`
	AcceptedDate     string `json:"acceptedDate" csv:"acceptedDate" db:"accepted_date"`
	FiscalYear       Year   `json:"fiscalYear" csv:"fiscalYear" db:"fiscal_year"`
	Period           string `json:"period" csv:"period" db:"period"`
}

func (header *StatementHeader) validate(dataType *DataType) error {
	switch {
	case header.Symbol == "":
		return missing(dataType, "symbol")
	case !validDate(header.Date):
		return missing(dataType, "date")
	case header.Period == "":
		return missing(dataType, "period")
	}

	return nil
}

func (header *StatementHeader) identity() periodIdentity {
	return periodIdentity{
		symbol:           header.Symbol,
		date:             header.Date,
		period:           header.Period,
		reportedCurrency: header.ReportedCurrency,
		fiscalYear:       header.FiscalYear,
	}
}

type IncomeStatement struct {
	StatementHeader

	Revenue                                 *float64 `json:"revenue" csv:"revenue,omitempty" db:"revenue"`
	CostOfRevenue                           *float64 `json:"costOfRevenue" csv:"costOfRevenue,omitempty" db:"cost_of_revenue"`
	GrossProfit                             *float64 `json:"grossProfit" csv:"grossProfit,omitempty" db:"gross_profit"`
	ResearchAndDevelopmentExpenses          *float64 `json:"researchAndDevelopmentExpenses" csv:"researchAndDevelopmentExpenses,omitempty" db:"research_and_development_expenses"`
	GeneralAndAdministrativeExpenses        *float64 `json:"generalAndAdministrativeExpenses" csv:"generalAndAdministrativeExpenses,omitempty" db:"general_and_administrative_expenses"`
	SellingAndMarketingExpenses             *float64 `json:"sellingAndMarketingExpenses" csv:"sellingAndMarketingExpenses,omitempty" db:"selling_and_marketing_expenses"`
	SellingGeneralAndAdministrativeExpenses *float64 `json:"sellingGeneralAndAdministrativeExpenses" csv:"sellingGeneralAndAdministrativeExpenses,omitempty" db:"selling_general_and_administrative_expenses"`
	OperatingExpenses                       *float64 `json:"operatingExpenses" csv:"operatingExpenses,omitempty" db:"operating_expenses"`
	CostAndExpenses                         *float64 `json:"costAndExpenses" csv:"costAndExpenses,omitempty" db:"cost_and_expenses"`
	InterestIncome                          *float64 `json:"interestIncome" csv:"interestIncome,omitempty" db:"interest_income"`
	InterestExpense                         *float64 `json:"interestExpense" csv:"interestExpense,omitempty" db:"interest_expense"`
	DepreciationAndAmortization             *float64 `json:"depreciationAndAmortization" csv:"depreciationAndAmortization,omitempty" db:"depreciation_and_amortization"`
	EBITDA                                  *float64 `json:"ebitda" csv:"ebitda,omitempty" db:"ebitda"`
	EBIT                                    *float64 `json:"ebit" csv:"ebit,omitempty" db:"ebit"`
	OperatingIncome                         *float64 `json:"operatingIncome" csv:"operatingIncome,omitempty" db:"operating_income"`
	IncomeBeforeTax                         *float64 `json:"incomeBeforeTax" csv:"incomeBeforeTax,omitempty" db:"income_before_tax"`
	IncomeTaxExpense                        *float64 `json:"incomeTaxExpense" csv:"incomeTaxExpense,omitempty" db:"income_tax_expense"`
	NetIncome                               *float64 `json:"netIncome" csv:"netIncome,omitempty" db:"net_income"`
	EPS                                     *float64 `json:"eps" csv:"eps,omitempty" db:"eps"`
	EPSDiluted                              *float64 `json:"epsDiluted" csv:"epsDiluted,omitempty" db:"eps_diluted"`
	WeightedAverageShsOut                   *float64 `json:"weightedAverageShsOut" csv:"weightedAverageShsOut,omitempty" db:"weighted_average_shs_out"`
	WeightedAverageShsOutDil                *float64 `json:"weightedAverageShsOutDil" csv:"weightedAverageShsOutDil,omitempty" db:"weighted_average_shs_out_dil"`
}

func (stmt *IncomeStatement) DataType() *DataType {
	return DataTypes[IncomeStatementKey]
}

func (stmt *IncomeStatement) Validate() error {
	return stmt.validate(stmt.DataType())
}

func (stmt *IncomeStatement) MetricRow() (*MetricRow, error) {
	return newMetricRow(stmt.DataType(), stmt.identity(), stmt)
}

type BalanceSheet struct {
	StatementHeader

	CashAndCashEquivalents         *float64 `json:"cashAndCashEquivalents" csv:"cashAndCashEquivalents,omitempty" db:"cash_and_cash_equivalents"`
	ShortTermInvestments           *float64 `json:"shortTermInvestments" csv:"shortTermInvestments,omitempty" db:"short_term_investments"`
	CashAndShortTermInvestments    *float64 `json:"cashAndShortTermInvestments" csv:"cashAndShortTermInvestments,omitempty" db:"cash_and_short_term_investments"`
	NetReceivables                 *float64 `json:"netReceivables" csv:"netReceivables,omitempty" db:"net_receivables"`
	Inventory                      *float64 `json:"inventory" csv:"inventory,omitempty" db:"inventory"`
	TotalCurrentAssets             *float64 `json:"totalCurrentAssets" csv:"totalCurrentAssets,omitempty" db:"total_current_assets"`
	PropertyPlantEquipmentNet      *float64 `json:"propertyPlantEquipmentNet" csv:"propertyPlantEquipmentNet,omitempty" db:"property_plant_equipment_net"`
	Goodwill                       *float64 `json:"goodwill" csv:"goodwill,omitempty" db:"goodwill"`
	IntangibleAssets               *float64 `json:"intangibleAssets" csv:"intangibleAssets,omitempty" db:"intangible_assets"`
	TotalNonCurrentAssets          *float64 `json:"totalNonCurrentAssets" csv:"totalNonCurrentAssets,omitempty" db:"total_non_current_assets"`
	TotalAssets                    *float64 `json:"totalAssets" csv:"totalAssets,omitempty" db:"total_assets"`
	AccountPayables                *float64 `json:"accountPayables" csv:"accountPayables,omitempty" db:"account_payables"`
	ShortTermDebt                  *float64 `json:"shortTermDebt" csv:"shortTermDebt,omitempty" db:"short_term_debt"`
	TotalCurrentLiabilities        *float64 `json:"totalCurrentLiabilities" csv:"totalCurrentLiabilities,omitempty" db:"total_current_liabilities"`
	LongTermDebt                   *float64 `json:"longTermDebt" csv:"longTermDebt,omitempty" db:"long_term_debt"`
	TotalNonCurrentLiabilities     *float64 `json:"totalNonCurrentLiabilities" csv:"totalNonCurrentLiabilities,omitempty" db:"total_non_current_liabilities"`
	TotalLiabilities               *float64 `json:"totalLiabilities" csv:"totalLiabilities,omitempty" db:"total_liabilities"`
	RetainedEarnings               *float64 `json:"retainedEarnings" csv:"retainedEarnings,omitempty" db:"retained_earnings"`
	TotalStockholdersEquity        *float64 `json:"totalStockholdersEquity" csv:"totalStockholdersEquity,omitempty" db:"total_stockholders_equity"`
	TotalEquity                    *float64 `json:"totalEquity" csv:"totalEquity,omitempty" db:"total_equity"`
	TotalInvestments               *float64 `json:"totalInvestments" csv:"totalInvestments,omitempty" db:"total_investments"`
	TotalDebt                      *float64 `json:"totalDebt" csv:"totalDebt,omitempty" db:"total_debt"`
	NetDebt                        *float64 `json:"netDebt" csv:"netDebt,omitempty" db:"net_debt"`
	TotalLiabilitiesAndTotalEquity *float64 `json:"totalLiabilitiesAndTotalEquity" csv:"totalLiabilitiesAndTotalEquity,omitempty" db:"total_liabilities_and_total_equity"`
}

func (stmt *BalanceSheet) DataType() *DataType {
	return DataTypes[BalanceSheetKey]
}

func (stmt *BalanceSheet) Validate() error {
	return stmt.validate(stmt.DataType())
}

func (stmt *BalanceSheet) MetricRow() (*MetricRow, error) {
	return newMetricRow(stmt.DataType(), stmt.identity(), stmt)
}

type CashFlowStatement struct {
	StatementHeader

	NetIncome                              *float64 `json:"netIncome" csv:"netIncome,omitempty" db:"net_income"`
	DepreciationAndAmortization            *float64 `json:"depreciationAndAmortization" csv:"depreciationAndAmortization,omitempty" db:"depreciation_and_amortization"`
	StockBasedCompensation                 *float64 `json:"stockBasedCompensation" csv:"stockBasedCompensation,omitempty" db:"stock_based_compensation"`
	ChangeInWorkingCapital                 *float64 `json:"changeInWorkingCapital" csv:"changeInWorkingCapital,omitempty" db:"change_in_working_capital"`
	NetCashProvidedByOperatingActivities   *float64 `json:"netCashProvidedByOperatingActivities" csv:"netCashProvidedByOperatingActivities,omitempty" db:"net_cash_provided_by_operating_activities"`
	InvestmentsInPropertyPlantAndEquipment *float64 `json:"investmentsInPropertyPlantAndEquipment" csv:"investmentsInPropertyPlantAndEquipment,omitempty" db:"investments_in_property_plant_and_equipment"`
	AcquisitionsNet                        *float64 `json:"acquisitionsNet" csv:"acquisitionsNet,omitempty" db:"acquisitions_net"`
	PurchasesOfInvestments                 *float64 `json:"purchasesOfInvestments" csv:"purchasesOfInvestments,omitempty" db:"purchases_of_investments"`
	SalesMaturitiesOfInvestments           *float64 `json:"salesMaturitiesOfInvestments" csv:"salesMaturitiesOfInvestments,omitempty" db:"sales_maturities_of_investments"`
	NetCashProvidedByInvestingActivities   *float64 `json:"netCashProvidedByInvestingActivities" csv:"netCashProvidedByInvestingActivities,omitempty" db:"net_cash_provided_by_investing_activities"`
	NetDebtIssuance                        *float64 `json:"netDebtIssuance" csv:"netDebtIssuance,omitempty" db:"net_debt_issuance"`
	CommonStockIssuance                    *float64 `json:"commonStockIssuance" csv:"commonStockIssuance,omitempty" db:"common_stock_issuance"`
	CommonStockRepurchased                 *float64 `json:"commonStockRepurchased" csv:"commonStockRepurchased,omitempty" db:"common_stock_repurchased"`
	NetDividendsPaid                       *float64 `json:"netDividendsPaid" csv:"netDividendsPaid,omitempty" db:"net_dividends_paid"`
	NetCashProvidedByFinancingActivities   *float64 `json:"netCashProvidedByFinancingActivities" csv:"netCashProvidedByFinancingActivities,omitempty" db:"net_cash_provided_by_financing_activities"`
	EffectOfForexChangesOnCash             *float64 `json:"effectOfForexChangesOnCash" csv:"effectOfForexChangesOnCash,omitempty" db:"effect_of_forex_changes_on_cash"`
	NetChangeInCash                        *float64 `json:"netChangeInCash" csv:"netChangeInCash,omitempty" db:"net_change_in_cash"`
	OperatingCashFlow                      *float64 `json:"operatingCashFlow" csv:"operatingCashFlow,omitempty" db:"operating_cash_flow"`
	CapitalExpenditure                     *float64 `json:"capitalExpenditure" csv:"capitalExpenditure,omitempty" db:"capital_expenditure"`
	FreeCashFlow                           *float64 `json:"freeCashFlow" csv:"freeCashFlow,omitempty" db:"free_cash_flow"`
}

func (stmt *CashFlowStatement) DataType() *DataType {
	return DataTypes[CashFlowKey]
}

func (stmt *CashFlowStatement) Validate() error {
	return stmt.validate(stmt.DataType())
}

func (stmt *CashFlowStatement) MetricRow() (*MetricRow, error) {
	return newMetricRow(stmt.DataType(), stmt.identity(), stmt)
}

// Ratios does not carry filing metadata, so it only embeds the fields FMP
// returns for it
type Ratios struct {
	Date             string `json:"date" csv:"date" db:"date"`
	Symbol           string `json:"symbol" csv:"symbol" db:"symbol"`
	ReportedCurrency string `json:"reportedCurrency" csv:"reportedCurrency" db:"reported_currency"`
	FiscalYear       Year   `json:"fiscalYear" csv:"fiscalYear" db:"fiscal_year"`
	Period           string `json:"period" csv:"period" db:"period"`

	GrossProfitMargin                *float64 `json:"grossProfitMargin" csv:"grossProfitMargin,omitempty" db:"gross_profit_margin"`
	EBITMargin                       *float64 `json:"ebitMargin" csv:"ebitMargin,omitempty" db:"ebit_margin"`
	EBITDAMargin                     *float64 `json:"ebitdaMargin" csv:"ebitdaMargin,omitempty" db:"ebitda_margin"`
	OperatingProfitMargin            *float64 `json:"operatingProfitMargin" csv:"operatingProfitMargin,omitempty" db:"operating_profit_margin"`
	PretaxProfitMargin               *float64 `json:"pretaxProfitMargin" csv:"pretaxProfitMargin,omitempty" db:"pretax_profit_margin"`
	ContinuousOperationsProfitMargin *float64 `json:"continuousOperationsProfitMargin" csv:"continuousOperationsProfitMargin,omitempty" db:"continuous_operations_profit_margin"`
	NetProfitMargin                  *float64 `json:"netProfitMargin" csv:"netProfitMargin,omitempty" db:"net_profit_margin"`
	CurrentRatio                     *float64 `json:"currentRatio" csv:"currentRatio,omitempty" db:"current_ratio"`
	QuickRatio                       *float64 `json:"quickRatio" csv:"quickRatio,omitempty" db:"quick_ratio"`
	CashRatio                        *float64 `json:"cashRatio" csv:"cashRatio,omitempty" db:"cash_ratio"`
	DebtToEquityRatio                *float64 `json:"debtToEquityRatio" csv:"debtToEquityRatio,omitempty" db:"debt_to_equity_ratio"`
	DebtToAssetsRatio                *float64 `json:"debtToAssetsRatio" csv:"debtToAssetsRatio,omitempty" db:"debt_to_assets_ratio"`
	InterestCoverageRatio            *float64 `json:"interestCoverageRatio" csv:"interestCoverageRatio,omitempty" db:"interest_coverage_ratio"`
	PriceToEarningsRatio             *float64 `json:"priceToEarningsRatio" csv:"priceToEarningsRatio,omitempty" db:"price_to_earnings_ratio"`
	PriceToBookRatio                 *float64 `json:"priceToBookRatio" csv:"priceToBookRatio,omitempty" db:"price_to_book_ratio"`
	PriceToSalesRatio                *float64 `json:"priceToSalesRatio" csv:"priceToSalesRatio,omitempty" db:"price_to_sales_ratio"`
	PriceToEarningsGrowthRatio       *float64 `json:"priceToEarningsGrowthRatio" csv:"priceToEarningsGrowthRatio,omitempty" db:"price_to_earnings_growth_ratio"`
	DividendYield                    *float64 `json:"dividendYield" csv:"dividendYield,omitempty" db:"dividend_yield"`
	DividendPayoutRatio              *float64 `json:"dividendPayoutRatio" csv:"dividendPayoutRatio,omitempty" db:"dividend_payout_ratio"`
	EnterpriseValueMultiple          *float64 `json:"enterpriseValueMultiple" csv:"enterpriseValueMultiple,omitempty" db:"enterprise_value_multiple"`
}

func (ratios *Ratios) DataType() *DataType {
	return DataTypes[RatiosKey]
}

func (ratios *Ratios) Validate() error {
	header := StatementHeader{Symbol: ratios.Symbol, Date: ratios.Date, Period: ratios.Period}
	return header.validate(ratios.DataType())
}

func (ratios *Ratios) MetricRow() (*MetricRow, error) {
	return newMetricRow(ratios.DataType(), periodIdentity{
		symbol:           ratios.Symbol,
		date:             ratios.Date,
		period:           ratios.Period,
		reportedCurrency: ratios.ReportedCurrency,
		fiscalYear:       ratios.FiscalYear,
	}, ratios)
}
