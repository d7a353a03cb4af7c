package seed

import "github.com/ktpcontractings-rgb/tdai-legal-platform-complete/internal/model"

// StarterKnowledge returns the bootstrap knowledge base per agent ID. Each
// executive seat gets its own scoped documents; the traffic specialists get
// Michigan practice-area primers.
func StarterKnowledge() map[string][]model.AddKnowledgeRequest {
	return map[string][]model.AddKnowledgeRequest{
		"SIGMA-1": {
			{
				Title:      "Strategic Growth Framework",
				Content:    "Focus on aggressive scaling strategies: market penetration, geographic expansion, product diversification, strategic partnerships, and M&A opportunities. Target becoming the first single-employee unicorn through AI automation.",
				Category:   model.KnowledgeStrategy,
				Importance: 10,
			},
			{
				Title:      "Legal Tech Market Analysis",
				Content:    "Legal services market is $437B in the US. AI-powered legal services growing at 25% CAGR. Key competitors: LegalZoom, Rocket Lawyer. Opportunity: personalized AI agents vs generic templates.",
				Category:   model.KnowledgeMarketResearch,
				Importance: 9,
			},
			{
				Title:      "Revenue Scaling Playbook",
				Content:    "Phase 1: Traffic tickets ($25 per case). Phase 2: Expand to family law, corporate. Phase 3: Enterprise legal departments. Phase 4: Nationwide coverage, all 50 states.",
				Category:   model.KnowledgeStrategy,
				Importance: 10,
			},
		},
		"mgmt_cto_zade": {
			{
				Title:      "AI Architecture Stack",
				Content:    "Current: OpenAI completions for agent replies, Qdrant for vector search, Postgres with pgvector for data. Next: fine-tuned models per state law, multi-agent orchestration, voice integration, RAG optimization.",
				Category:   model.KnowledgeTechnical,
				Importance: 10,
			},
			{
				Title:      "Scalability Roadmap",
				Content:    "Target: horizontally scaled stateless API, separate agent services, CDN for media, 99.99% uptime SLA. Handle 100K+ concurrent consultations.",
				Category:   model.KnowledgeTechnical,
				Importance: 9,
			},
			{
				Title:      "Security & Compliance",
				Content:    "Legal data requires SOC 2, attorney-client privilege protection. Implement: encryption in transit and at rest, audit logs, data residency controls, penetration testing.",
				Category:   model.KnowledgeTechnical,
				Importance: 10,
			},
		},
		"mgmt_pm_maya": {
			{
				Title:      "Product Roadmap Q1-Q4",
				Content:    "Q1: traffic ticket MVP launch. Q2: family law agents (divorce, custody). Q3: corporate legal (contracts, compliance). Q4: mobile app plus voice-first experience. Focus: rapid iteration based on user feedback.",
				Category:   model.KnowledgeStrategy,
				Importance: 10,
			},
			{
				Title:      "User Persona Research",
				Content:    "Primary: individual consumers (traffic tickets, family law). Secondary: small businesses (contracts, employment). Tertiary: enterprise legal departments. Pain points: cost, speed, accessibility, trust in AI.",
				Category:   model.KnowledgeMarketResearch,
				Importance: 9,
			},
		},
		"mgmt_marketing_alex": {
			{
				Title:      "Customer Acquisition Strategy",
				Content:    "Channels: SEO on legal keywords, paid search on traffic ticket queries, social legal-tips content, partnerships with traffic schools and insurers. Target CAC $15, LTV $200+.",
				Category:   model.KnowledgeStrategy,
				Importance: 10,
			},
			{
				Title:      "Brand Positioning",
				Content:    "Position as 'Your AI Legal Team': accessible, affordable, expert. Differentiation: personalized AI agents vs generic chatbots. Trust signals: success rates, testimonials, regulatory compliance.",
				Category:   model.KnowledgeStrategy,
				Importance: 9,
			},
		},
		"mgmt_billing_sophia": {
			{
				Title:      "Pricing Strategy",
				Content:    "Pay-per-ticket packs: single $25, five-pack $100, ten-pack $180, twenty-five-pack $400. Subscription tiers: Individual, Small Business, Law Firm Pro, Corporate Legal. Usage-based for high volume.",
				Category:   model.KnowledgeStrategy,
				Importance: 10,
			},
			{
				Title:      "Payment & Billing Systems",
				Content:    "Stripe for payments, subscription management, invoicing. Checkout sessions carry the pack or tier in metadata; webhooks settle credits exactly once per session.",
				Category:   model.KnowledgeTechnical,
				Importance: 8,
			},
		},
		"mgmt_legal_robert": {
			{
				Title:      "Regulatory Compliance Framework",
				Content:    "Key regulations: unauthorized practice of law (UPL), AI must assist, not replace attorneys. State bar rules vary. Privacy: GDPR, CCPA. Disclosures: AI limitations, not-legal-advice disclaimer.",
				Category:   model.KnowledgeStrategy,
				Importance: 10,
			},
			{
				Title:      "Quality Assurance Protocol",
				Content:    "All agent responses reviewed by licensed attorneys initially. Implement confidence scoring. High-risk cases escalate to human attorneys. Track accuracy and update knowledge bases continuously.",
				Category:   model.KnowledgeStrategy,
				Importance: 10,
			},
		},
		"agent_traffic_sarah": {
			{
				Title:      "Michigan Traffic Code Overview",
				Content:    "Michigan Vehicle Code is MCL 257. Civil infractions carry fines and points but no jail. Misdemeanor traffic offenses (reckless driving, DUI) carry potential jail time. Points stay on record for two years from conviction date.",
				Category:   model.KnowledgeCurriculum,
				Importance: 9,
			},
			{
				Title:      "License Restoration Process",
				Content:    "Secretary of State hearings require proof of sobriety, ignition interlock compliance where ordered, and community support letters. Hardship appeals go through circuit court under MCL 257.323.",
				Category:   model.KnowledgeCurriculum,
				Importance: 8,
			},
		},
		"TRAFFIC-SPEED-001": {
			{
				Title:      "Radar and Lidar Challenge Points",
				Content:    "Calibration records must show testing before and after the shift. Tuning fork certificates expire. Visual estimate corroboration is required in several districts. Pacing requires a minimum following distance over measured time.",
				Category:   model.KnowledgeCaseStudy,
				Importance: 9,
			},
		},
		"TRAFFIC-DUI-001": {
			{
				Title:      "Field Sobriety and Breath Test Defense",
				Content:    "Standardized field sobriety tests must follow NHTSA protocol or results lose weight. DataMaster breath tests require a 15-minute observation period. Rising BAC and medical conditions (GERD, diabetes) are recognized defenses under MCL 257.625.",
				Category:   model.KnowledgeCaseStudy,
				Importance: 10,
			},
		},
		"TRAFFIC-SIGNAL-001": {
			{
				Title:      "Signal Timing and Signage Defense",
				Content:    "Yellow-interval timing below the MDOT minimum for the posted approach speed invalidates many red-light citations. Obstructed or nonconforming signage is a complete defense to stop sign violations.",
				Category:   model.KnowledgeCaseStudy,
				Importance: 9,
			},
		},
	}
}
