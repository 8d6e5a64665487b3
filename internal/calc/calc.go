// Package calc holds the ROI calculator formulas. Every function is a
// pure transformation of its input record; nothing here touches I/O.
package calc

// ChatbotInputs describe a support channel considered for automation.
type ChatbotInputs struct {
	Inquiries         float64 `json:"inquiries" validate:"gte=0"`
	AvgMinutes        float64 `json:"avgMinutes" validate:"gte=0"`
	HourlyRate        float64 `json:"hourlyRate" validate:"gte=0"`
	AutomationPercent float64 `json:"automationPercent" validate:"gte=0,lte=100"`
	PlanFee           float64 `json:"planFee" validate:"gte=0"`
}

type ChatbotOutputs struct {
	SavedHours        float64 `json:"savedHours"`
	SavedCost         float64 `json:"savedCost"`
	NetMonthlyBenefit float64 `json:"netMonthlyBenefit"`
	// PaybackMonths is null when the plan never pays for itself.
	PaybackMonths      *float64 `json:"paybackMonths"`
	ROI12MonthsPercent float64  `json:"roi12MonthsPercent"`
}

func Chatbot(in ChatbotInputs) ChatbotOutputs {
	totalMinutes := in.Inquiries * in.AvgMinutes
	automatedMinutes := totalMinutes * (in.AutomationPercent / 100)
	savedHours := automatedMinutes / 60
	savedCost := savedHours * in.HourlyRate
	netMonthlyBenefit := savedCost - in.PlanFee

	var paybackMonths *float64
	if netMonthlyBenefit > 0 && in.PlanFee > 0 {
		v := in.PlanFee / netMonthlyBenefit
		paybackMonths = &v
	}

	var roi float64
	if in.PlanFee > 0 {
		roi = ((savedCost*12 - in.PlanFee*12) / (in.PlanFee * 12)) * 100
	}

	return ChatbotOutputs{
		SavedHours:         savedHours,
		SavedCost:          savedCost,
		NetMonthlyBenefit:  netMonthlyBenefit,
		PaybackMonths:      paybackMonths,
		ROI12MonthsPercent: roi,
	}
}

// BackofficeInputs describe manual back-office work across a team.
type BackofficeInputs struct {
	Employees        float64 `json:"employees" validate:"gte=0"`
	MinutesPerDay    float64 `json:"minutesPerDay" validate:"gte=0"`
	MonthlySalary    float64 `json:"monthlySalary" validate:"gte=0"`
	ReductionPercent float64 `json:"reductionPercent" validate:"gte=0,lte=100"`
}

type BackofficeOutputs struct {
	SavedHoursPerMonth   float64 `json:"savedHoursPerMonth"`
	SavedCostPerMonth    float64 `json:"savedCostPerMonth"`
	HourlyRateApprox     float64 `json:"hourlyRateApprox"`
	TotalMinutesPerMonth float64 `json:"totalMinutesPerMonth"`
	SavedMinutesPerMonth float64 `json:"savedMinutesPerMonth"`
}

// Backoffice assumes 22 working days a month and 8-hour days.
func Backoffice(in BackofficeInputs) BackofficeOutputs {
	const workDays = 22
	totalMinutesPerMonth := in.Employees * in.MinutesPerDay * workDays
	savedMinutesPerMonth := totalMinutesPerMonth * (in.ReductionPercent / 100)
	savedHoursPerMonth := savedMinutesPerMonth / 60
	hourlyRateApprox := in.MonthlySalary / (workDays * 8)
	savedCostPerMonth := savedHoursPerMonth * hourlyRateApprox

	return BackofficeOutputs{
		SavedHoursPerMonth:   savedHoursPerMonth,
		SavedCostPerMonth:    savedCostPerMonth,
		HourlyRateApprox:     hourlyRateApprox,
		TotalMinutesPerMonth: totalMinutesPerMonth,
		SavedMinutesPerMonth: savedMinutesPerMonth,
	}
}

// B2BInputs describe an outbound lead pipeline.
type B2BInputs struct {
	LeadsPerMonth      float64 `json:"leadsPerMonth" validate:"gte=0"`
	MeetingConvPercent float64 `json:"meetingConvPercent" validate:"gte=0,lte=100"`
	ClientConvPercent  float64 `json:"clientConvPercent" validate:"gte=0,lte=100"`
	LTV                float64 `json:"ltv" validate:"gte=0"`
	ServiceFeeMonthly  float64 `json:"serviceFeeMonthly" validate:"gte=0"`
}

type B2BOutputs struct {
	MeetingsPerMonth   float64 `json:"meetingsPerMonth"`
	ClientsPerMonth    float64 `json:"clientsPerMonth"`
	RevenuePerMonth    float64 `json:"revenuePerMonth"`
	NetBenefitPerMonth float64 `json:"netBenefitPerMonth"`
	ROI12MonthsPercent float64 `json:"roi12MonthsPercent"`
}

func B2B(in B2BInputs) B2BOutputs {
	meetingsPerMonth := in.LeadsPerMonth * (in.MeetingConvPercent / 100)
	clientsPerMonth := meetingsPerMonth * (in.ClientConvPercent / 100)
	revenuePerMonth := clientsPerMonth * in.LTV
	netBenefitPerMonth := revenuePerMonth - in.ServiceFeeMonthly

	var roi float64
	if in.ServiceFeeMonthly > 0 {
		roi = ((revenuePerMonth*12 - in.ServiceFeeMonthly*12) / (in.ServiceFeeMonthly * 12)) * 100
	}

	return B2BOutputs{
		MeetingsPerMonth:   meetingsPerMonth,
		ClientsPerMonth:    clientsPerMonth,
		RevenuePerMonth:    revenuePerMonth,
		NetBenefitPerMonth: netBenefitPerMonth,
		ROI12MonthsPercent: roi,
	}
}

// SEOInputs describe expected organic traffic growth.
type SEOInputs struct {
	OrganicTraffic float64 `json:"organicTraffic" validate:"gte=0"`
	ConvPercent    float64 `json:"convPercent" validate:"gte=0,lte=100"`
	LeadValue      float64 `json:"leadValue" validate:"gte=0"`
	GrowthPercent  float64 `json:"growthPercent" validate:"gte=0"`
	SEOInvestment  float64 `json:"seoInvestment" validate:"gte=0"`
}

type SEOOutputs struct {
	AdditionalVisits          float64 `json:"additionalVisits"`
	AdditionalLeads           float64 `json:"additionalLeads"`
	AdditionalRevenuePerMonth float64 `json:"additionalRevenuePerMonth"`
	ROI12MonthsPercent        float64 `json:"roi12MonthsPercent"`
}

func SEO(in SEOInputs) SEOOutputs {
	additionalVisits := in.OrganicTraffic * (in.GrowthPercent / 100)
	additionalLeads := additionalVisits * (in.ConvPercent / 100)
	additionalRevenuePerMonth := additionalLeads * in.LeadValue

	var roi float64
	if in.SEOInvestment > 0 {
		roi = ((additionalRevenuePerMonth*12 - in.SEOInvestment*12) / (in.SEOInvestment * 12)) * 100
	}

	return SEOOutputs{
		AdditionalVisits:          additionalVisits,
		AdditionalLeads:           additionalLeads,
		AdditionalRevenuePerMonth: additionalRevenuePerMonth,
		ROI12MonthsPercent:        roi,
	}
}
