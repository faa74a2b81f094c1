package domain

// Weights son los seis coeficientes del modelo lineal de crédito.
// Uno por feature, en el mismo orden que Features.
type Weights struct {
	TransactionCount   float64 `json:"transactionCount"`
	RepaymentRate      float64 `json:"repaymentRate"`
	PoolDeposits       float64 `json:"poolDeposits"`
	IdentityRegistered float64 `json:"identityRegistered"`
	AccountAge         float64 `json:"accountAge"`
	AvgLoanSize        float64 `json:"avgLoanSize"`
}

// ModelParams es el estado completo del modelo de crédito.
// Version sube exactamente 1 por cada llamada de entrenamiento no vacía;
// el entrenamiento solo muta weights y bias. Threshold lo muta únicamente
// la política adaptativa de la simulación.
type ModelParams struct {
	Version           int     `json:"version"`
	Weights           Weights `json:"weights"`
	Bias              float64 `json:"bias"`
	Threshold         float64 `json:"threshold"`
	MaxLoanMultiplier float64 `json:"maxLoanMultiplier"`
	BaseInterestRate  float64 `json:"baseInterestRate"`
	RiskPremiumFactor float64 `json:"riskPremiumFactor"`
	LearningRate      float64 `json:"learningRate"`
	TrainingSamples   int     `json:"trainingSamples"`
}

// DefaultModel devuelve el modelo inicial: pesos a cero, bias optimista.
// Con bias 1.5 el score arranca en 750 para cualquier borrower — el modelo
// empieza prestando y aprende de los impagos, no al revés.
func DefaultModel() ModelParams {
	return ModelParams{
		Version:           0,
		Weights:           Weights{},
		Bias:              1.5,
		Threshold:         0.25,
		MaxLoanMultiplier: 500,
		BaseInterestRate:  0.10,
		RiskPremiumFactor: 0.08,
		LearningRate:      0.12,
		TrainingSamples:   0,
	}
}

// MinApprovalScore es el score mínimo que aprueba con el threshold actual.
func (m ModelParams) MinApprovalScore() int {
	return int(round(300 + m.Threshold*550))
}
