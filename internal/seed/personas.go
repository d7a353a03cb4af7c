// Package seed holds the starter persona roster and knowledge fixtures, and
// applies them idempotently. Shared by server bootstrap and the one-shot
// maintenance scripts.
package seed

import "github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"

func strPtr(s string) *string { return &s }

// LegalAgents returns the client-facing attorney persona roster. Every
// violation type the intake router knows about has a specialist here.
func LegalAgents() []model.LegalAgent {
	mi := strPtr("MI")
	zade := strPtr("ZADE")
	return []model.LegalAgent{
		{
			ID:             "agent_traffic_sarah",
			Name:           "Sarah Mitchell",
			Specialization: model.SpecTraffic,
			Title:          "Traffic Law Specialist",
			Description:    "Expert in Michigan traffic violations, DUI defense under MCL 257.625, and Secretary of State license restoration.",
			SuccessRate:    96.2,
			CasesHandled:   1247,
			Status:         model.AgentActive,
			Avatar:         "👩‍⚖️",
			State:          mi,
			TrainedBy:      zade,
		},
		{
			ID:             "TRAFFIC-SPEED-001",
			Name:           "Velocity Defender",
			Specialization: model.SpecTraffic,
			Title:          "Speeding Ticket Specialist",
			Description:    "Expert in Michigan speeding violations, radar calibration challenges, and speed limit defense strategies. Specializes in finding procedural errors and negotiating reduced charges.",
			SuccessRate:    87.5,
			CasesHandled:   156,
			Status:         model.AgentActive,
			Avatar:         "🚗",
			State:          mi,
			TrainedBy:      zade,
		},
		{
			ID:             "TRAFFIC-DUI-001",
			Name:           "Sobriety Advocate",
			Specialization: model.SpecTraffic,
			Title:          "DUI/DWI Defense Specialist",
			Description:    "Michigan DUI/DWI expert focusing on field sobriety test challenges, breathalyzer accuracy, and constitutional rights. Handles complex impaired driving cases with high stakes.",
			SuccessRate:    72.3,
			CasesHandled:   89,
			Status:         model.AgentActive,
			Avatar:         "⚖️",
			State:          mi,
			TrainedBy:      zade,
		},
		{
			ID:             "TRAFFIC-SIGNAL-001",
			Name:           "Signal Guardian",
			Specialization: model.SpecTraffic,
			Title:          "Red Light & Stop Sign Specialist",
			Description:    "Specializes in traffic signal violations, camera ticket challenges, and intersection law. Expert at identifying faulty equipment, unclear signage, and timing issues.",
			SuccessRate:    91.2,
			CasesHandled:   203,
			Status:         model.AgentActive,
			Avatar:         "🚦",
			State:          mi,
			TrainedBy:      zade,
		},
		{
			ID:             "TRAFFIC-PARKING-001",
			Name:           "Parking Rights Defender",
			Specialization: model.SpecTraffic,
			Title:          "Parking Violation Specialist",
			Description:    "Michigan parking law expert handling meter violations, permit disputes, and handicap parking cases. Known for finding signage errors and permit technicalities.",
			SuccessRate:    94.6,
			CasesHandled:   412,
			Status:         model.AgentActive,
			Avatar:         "🅿️",
			State:          mi,
			TrainedBy:      zade,
		},
		{
			ID:             "TRAFFIC-RECKLESS-001",
			Name:           "Safe Driving Advocate",
			Specialization: model.SpecTraffic,
			Title:          "Reckless & Careless Driving Specialist",
			Description:    "Handles serious moving violations including reckless driving, careless driving, and aggressive driving charges. Focuses on reducing charges and protecting driving records.",
			SuccessRate:    78.4,
			CasesHandled:   127,
			Status:         model.AgentActive,
			Avatar:         "⚠️",
			State:          mi,
			TrainedBy:      zade,
		},
		{
			ID:             "TRAFFIC-LICENSE-001",
			Name:           "Documentation Specialist",
			Specialization: model.SpecTraffic,
			Title:          "License & Registration Expert",
			Description:    "Expert in license suspension, expired registration, insurance violations, and documentation issues. Helps clients navigate DMV requirements and restore driving privileges.",
			SuccessRate:    88.9,
			CasesHandled:   178,
			Status:         model.AgentActive,
			Avatar:         "📋",
			State:          mi,
			TrainedBy:      zade,
		},
		{
			ID:             "agent_family_michael",
			Name:           "Michael Rodriguez",
			Specialization: model.SpecFamily,
			Title:          "Family Law Expert",
			Description:    "Specializing in Michigan divorce (MCL 552), child custody under the Michigan Child Custody Act, and family mediation.",
			SuccessRate:    94.7,
			CasesHandled:   892,
			Status:         model.AgentActive,
			Avatar:         "👨‍⚖️",
			State:          mi,
		},
		{
			ID:             "agent_corporate_jennifer",
			Name:           "Jennifer Chen",
			Specialization: model.SpecCorporate,
			Title:          "Corporate Law Advisor",
			Description:    "Michigan business formation (LLC, Corp), contracts under Michigan contract law, and compliance for startups and enterprises.",
			SuccessRate:    98.1,
			CasesHandled:   654,
			Status:         model.AgentActive,
			Avatar:         "👩‍💼",
			State:          mi,
		},
		{
			ID:             "agent_criminal_david",
			Name:           "David Thompson",
			Specialization: model.SpecCriminal,
			Title:          "Criminal Defense Attorney",
			Description:    "Defense for Michigan criminal charges under MCL 750, misdemeanors, and felonies, with deep knowledge of the Michigan Penal Code.",
			SuccessRate:    91.5,
			CasesHandled:   1089,
			Status:         model.AgentActive,
			Avatar:         "⚖️",
			State:          mi,
		},
		{
			ID:             "agent_benefits_betty",
			Name:           "Betty Williams",
			Specialization: model.SpecBenefits,
			Title:          "Social Security Specialist",
			Description:    "30+ years helping Michigan residents navigate Social Security, SSI, SSDI, and state benefits systems.",
			SuccessRate:    97.3,
			CasesHandled:   2156,
			Status:         model.AgentActive,
			Avatar:         "🛡️",
			State:          mi,
		},
	}
}

// ManagementAgents returns the executive-suite roster. SIGMA-1 is the
// coordination hub: it receives every intake notification and fronts the
// executive chat.
func ManagementAgents() []model.ManagementAgent {
	return []model.ManagementAgent{
		{
			ID:          "SIGMA-1",
			Name:        "SIGMA",
			Role:        model.MgmtCEO,
			Title:       "Central Operations Coordinator",
			Status:      model.MgmtActive,
			Avatar:      "🧠",
			Description: "Coordination hub routing work between the executive suite, specialists, and the regulatory board.",
		},
		{
			ID:          "mgmt_ceo_evelyn",
			Name:        "Dr. Evelyn Reed",
			Role:        model.MgmtCEO,
			Title:       "Chief Executive Officer",
			Status:      model.MgmtActive,
			Avatar:      "👑",
			Description: "Strategic visionary leading TDAI's mission to democratize legal services through AI.",
		},
		{
			ID:          "mgmt_cto_zade",
			Name:        "Dr. Zade Sterling",
			Role:        model.MgmtCTO,
			Title:       "Chief Technology Officer",
			Status:      model.MgmtActive,
			Avatar:      "🏗️",
			Description: "Architecting scalable AI infrastructure for Michigan legal service delivery with plans for state-by-state expansion.",
		},
		{
			ID:          "mgmt_pm_maya",
			Name:        "Maya Singh",
			Role:        model.MgmtPM,
			Title:       "Product Manager",
			Status:      model.MgmtActive,
			Avatar:      "📊",
			Description: "Driving product-market fit and customer success across all legal specializations.",
		},
		{
			ID:          "mgmt_marketing_alex",
			Name:        "Alex Martinez",
			Role:        model.MgmtMarketing,
			Title:       "Chief Marketing Officer",
			Status:      model.MgmtActive,
			Avatar:      "📢",
			Description: "Building the TDAI brand and acquiring customers in Michigan with strategic plans for multi-state expansion.",
		},
		{
			ID:          "mgmt_billing_sophia",
			Name:        "Sophia Johnson",
			Role:        model.MgmtBilling,
			Title:       "Chief Financial Officer",
			Status:      model.MgmtActive,
			Avatar:      "💰",
			Description: "Managing subscriptions, billing, and financial operations.",
		},
		{
			ID:          "mgmt_legal_robert",
			Name:        "Robert Davis",
			Role:        model.MgmtLegal,
			Title:       "General Counsel",
			Status:      model.MgmtActive,
			Avatar:      "⚖️",
			Description: "Ensuring compliance and legal integrity across all operations.",
		},
	}
}

// BoardMembers returns the regulatory oversight board roster.
func BoardMembers() []model.RegulatoryBoardMember {
	return []model.RegulatoryBoardMember{
		{ID: "board_chair_james", Name: "James Patterson", Position: "Board Chair", Specialization: "Corporate Governance", Status: "active", Avatar: "👔"},
		{ID: "board_ethics_maria", Name: "Maria Gonzalez", Position: "Ethics Officer", Specialization: "AI Ethics & Compliance", Status: "active", Avatar: "🎯"},
		{ID: "board_legal_thomas", Name: "Thomas Anderson", Position: "Legal Oversight", Specialization: "Legal Practice Standards", Status: "active", Avatar: "⚖️"},
		{ID: "board_tech_lisa", Name: "Lisa Wong", Position: "Technology Auditor", Specialization: "AI Safety & Security", Status: "active", Avatar: "🔒"},
		{ID: "board_consumer_john", Name: "John Smith", Position: "Consumer Advocate", Specialization: "Customer Protection", Status: "active", Avatar: "🛡️"},
		{ID: "board_quality_rachel", Name: "Rachel Brown", Position: "Quality Assurance", Specialization: "Service Quality Standards", Status: "active", Avatar: "✅"},
	}
}
