package models

// Portfolio is the top of the portfolio → program → project hierarchy.
type Portfolio struct {
	Model
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:1024" json:"description"`
	Owner       string `gorm:"size:255" json:"owner"`

	Programs []Program `gorm:"foreignKey:PortfolioID" json:"programs,omitempty"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

func (*Portfolio) EntityType() string {
	return "portfolio"
}

// Program groups projects under a portfolio.
type Program struct {
	Model
	PortfolioID uint64 `gorm:"not null;index" json:"portfolioId"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:1024" json:"description"`

	Projects []Project `gorm:"foreignKey:ProgramID" json:"projects,omitempty"`
}

func (Program) TableName() string {
	return "programs"
}

func (*Program) EntityType() string {
	return "program"
}
