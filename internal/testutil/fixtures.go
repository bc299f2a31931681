package testutil

// LCOERegistry is a small registry used across package tests: a levelized
// cost of electricity with two candidate equations, the preferred one
// needing capital data.
const LCOERegistry = `
variable "lcoe" {
  unit      = "$/MWh"
  aliases   = ["LCOE", "levelized cost of electricity"]
  full_name = "Levelized Cost of Electricity"
  format    = "%.2f"
}

variable "fixed_cost" {
  unit       = "$"
  aliases    = ["Fixed Cost", "FOM"]
  properties = ["Fixed Cost", "Fixed O&M Cost"]
}

variable "fuel_cost" {
  unit       = "$"
  aliases    = ["Fuel Cost"]
  properties = ["Fuel Cost"]
}

variable "generation" {
  unit       = "MWh"
  aliases    = ["Generation"]
  properties = ["Generation"]
}

variable "annual_capex" {
  unit = "$"
}

variable "capex" {
  unit       = "$"
  properties = ["Capital Cost"]
}

variable "discount_rate" {
  unit    = "%"
  default = 7
}

variable "lifetime" {
  unit    = "yr"
  default = 30
}

equation "lcoe_full" {
  output   = "lcoe"
  unit     = "$/MWh"
  formula  = "(annual_capex + fixed_cost + fuel_cost) / generation"
  priority = 10
}

equation "lcoe_basic" {
  output   = "lcoe"
  unit     = "$/MWh"
  formula  = "(fixed_cost + fuel_cost) / generation"
  priority = 20
}

equation "annual_capex" {
  output  = "annual_capex"
  unit    = "$"
  formula = "annualize(capex, discount_rate, lifetime)"
}
`
