// Package amm models the subnet's constant-product pool: TAO on one side,
// the subnet's alpha token on the other, with the EMA "moving price" the
// emission schedule weighs subnets by.
package amm

import (
	"fmt"
	"math"

	"github.com/dtaolabs/subnetsim/log"
)

const (
	// DefaultMovingAlpha is the EMA smoothing base for the moving price.
	DefaultMovingAlpha = 0.000003

	// DefaultHalvingTime is the moving-price EMA half-life in blocks
	// (about 28 days at one block per 12 seconds).
	DefaultHalvingTime = 201600

	// DefaultSlippageTolerance aborts swaps that move the price too far
	// from spot.
	DefaultSlippageTolerance = 0.01
)

// Pool is a constant-product (x*y=k) market between TAO and alpha reserves.
type Pool struct {
	TaoReserves   float64 `json:"tao_reserves"`
	AlphaReserves float64 `json:"alpha_reserves"`

	SubnetStartBlock int     `json:"subnet_start_block"`
	MovingAlpha      float64 `json:"moving_alpha"`
	HalvingTime      int     `json:"halving_time"`
	MovingPrice      float64 `json:"moving_price"`

	TotalTaoInjected   float64 `json:"total_tao_injected"`
	TotalAlphaInjected float64 `json:"total_alpha_injected"`
	TotalVolume        float64 `json:"total_volume"`
}

// NewPool seeds a pool with initial reserves. The moving price starts at
// zero and converges toward the capped spot price as blocks pass.
func NewPool(initialAlpha, initialTao float64, startBlock int) *Pool {
	return &Pool{
		TaoReserves:      initialTao,
		AlphaReserves:    initialAlpha,
		SubnetStartBlock: startBlock,
		MovingAlpha:      DefaultMovingAlpha,
		HalvingTime:      DefaultHalvingTime,
	}
}

// SpotPrice returns the instantaneous TAO-per-alpha price.
func (p *Pool) SpotPrice() float64 {
	if p.AlphaReserves <= 0 {
		return 0
	}
	return p.TaoReserves / p.AlphaReserves
}

// UpdateMovingPrice advances the EMA one step. The effective alpha grows
// with pool age, alpha = movingAlpha * age/(age+halving), and the tracked
// spot price is capped at 1.0.
func (p *Pool) UpdateMovingPrice(currentBlock int) {
	blocksSinceStart := currentBlock - p.SubnetStartBlock
	if blocksSinceStart <= 0 {
		return
	}
	capped := math.Min(p.SpotPrice(), 1.0)
	age := float64(blocksSinceStart)
	alpha := p.MovingAlpha * age / (age + float64(p.HalvingTime))
	p.MovingPrice = alpha*capped + (1-alpha)*p.MovingPrice
}

// InjectTao adds emission TAO to the reserves, raising the alpha price.
func (p *Pool) InjectTao(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("negative tao injection: %g", amount)
	}
	p.TaoReserves += amount
	p.TotalTaoInjected += amount
	log.Debug(log.AMMMonitoring, "tao injected", "amount", amount, "price", p.SpotPrice())
	return nil
}

// AlphaInjection splits an epoch's alpha emission into the part entering the
// pool reserves (alpha_in, price-capped) and the part distributed to
// participants (alpha_out, always the full emission).
func (p *Pool) AlphaInjection(taoInjection, alphaEmission float64) (alphaIn, alphaOut float64) {
	price := p.SpotPrice()
	if price > 0 {
		alphaIn = math.Min(taoInjection/price, alphaEmission)
	} else {
		alphaIn = alphaEmission
	}
	return alphaIn, alphaEmission
}

// InjectAlpha adds alpha_in to the pool reserves. alpha_out never touches
// the pool; it is emitted to participants directly.
func (p *Pool) InjectAlpha(alphaIn float64) error {
	if alphaIn < 0 {
		return fmt.Errorf("negative alpha injection: %g", alphaIn)
	}
	p.AlphaReserves += alphaIn
	p.TotalAlphaInjected += alphaIn
	return nil
}

// SwapAlphaForTao sells alpha into the pool and returns the TAO received.
// The swap fails if the pool cannot pay or the realized slippage exceeds
// tolerance; a failed swap leaves the reserves untouched.
func (p *Pool) SwapAlphaForTao(alphaAmount, slippageTolerance float64) (float64, error) {
	if alphaAmount <= 0 {
		return 0, fmt.Errorf("swap amount must be positive, got %g", alphaAmount)
	}
	k := p.AlphaReserves * p.TaoReserves
	newAlpha := p.AlphaReserves + alphaAmount
	newTao := k / newAlpha
	taoReceived := p.TaoReserves - newTao
	if taoReceived >= p.TaoReserves {
		return 0, fmt.Errorf("insufficient tao reserves for swap of %g alpha", alphaAmount)
	}
	if expected := alphaAmount * p.SpotPrice(); expected > 0 {
		slippage := math.Abs(taoReceived-expected) / expected
		if slippage > slippageTolerance {
			return 0, fmt.Errorf("slippage %.4f exceeds tolerance %.4f", slippage, slippageTolerance)
		}
	}
	p.AlphaReserves = newAlpha
	p.TaoReserves = newTao
	p.TotalVolume += alphaAmount
	log.Debug(log.AMMMonitoring, "alpha sold", "alpha", alphaAmount, "tao", taoReceived, "price", p.SpotPrice())
	return taoReceived, nil
}

// SwapTaoForAlpha buys alpha with TAO and returns the alpha received, under
// the same slippage guard as SwapAlphaForTao.
func (p *Pool) SwapTaoForAlpha(taoAmount, slippageTolerance float64) (float64, error) {
	if taoAmount <= 0 {
		return 0, fmt.Errorf("swap amount must be positive, got %g", taoAmount)
	}
	if taoAmount >= p.TaoReserves {
		return 0, fmt.Errorf("insufficient tao reserves for swap of %g tao", taoAmount)
	}
	k := p.AlphaReserves * p.TaoReserves
	newTao := p.TaoReserves + taoAmount
	newAlpha := k / newTao
	alphaReceived := p.AlphaReserves - newAlpha
	if spot := p.SpotPrice(); spot > 0 {
		expected := taoAmount / spot
		if expected > 0 {
			slippage := math.Abs(alphaReceived-expected) / expected
			if slippage > slippageTolerance {
				return 0, fmt.Errorf("slippage %.4f exceeds tolerance %.4f", slippage, slippageTolerance)
			}
		}
	}
	p.TaoReserves = newTao
	p.AlphaReserves = newAlpha
	p.TotalVolume += alphaReceived
	log.Debug(log.AMMMonitoring, "alpha bought", "tao", taoAmount, "alpha", alphaReceived, "price", p.SpotPrice())
	return alphaReceived, nil
}
