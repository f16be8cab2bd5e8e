package questions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yclau/chemladder/internal/domain"
	"github.com/yclau/chemladder/internal/store"
)

// Seed populates the question bank with the built-in HKDSE chemistry set if
// the bank is empty. Safe to call on every startup.
func Seed(ctx context.Context, repo store.Repository) error {
	count, err := repo.CountQuestions(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		return nil
	}

	for i := range seedQuestions {
		if err := repo.InsertQuestion(ctx, &seedQuestions[i]); err != nil {
			return fmt.Errorf("seed question %s: %w", seedQuestions[i].ID, err)
		}
	}

	slog.Info("Question bank seeded", "count", len(seedQuestions))
	return nil
}

func q(id, topic, stem, a, b, c, d string, correct domain.Option, explanation string) domain.Question {
	return domain.Question{
		ID:    id,
		Topic: topic,
		Stem:  stem,
		Choices: map[domain.Option]string{
			domain.OptionA: a,
			domain.OptionB: b,
			domain.OptionC: c,
			domain.OptionD: d,
		},
		Correct:     correct,
		Explanation: explanation,
	}
}

var seedQuestions = []domain.Question{
	q("chem-001", "Atomic Structure",
		"Which particle determines the atomic number of an element?",
		"Proton", "Neutron", "Electron", "Positron",
		domain.OptionA,
		"The atomic number is the number of protons in the nucleus; it defines the element."),
	q("chem-002", "Atomic Structure",
		"An atom of potassium-39 contains how many neutrons?",
		"19", "20", "39", "58",
		domain.OptionB,
		"Mass number 39 minus atomic number 19 gives 20 neutrons."),
	q("chem-003", "Chemical Bonding",
		"Which substance has a giant covalent structure?",
		"Iodine", "Sodium chloride", "Silicon dioxide", "Carbon dioxide",
		domain.OptionC,
		"Silicon dioxide is a giant covalent network; iodine and carbon dioxide are simple molecular, sodium chloride is giant ionic."),
	q("chem-004", "Chemical Bonding",
		"The electrical conductivity of molten sodium chloride is due to the movement of",
		"delocalized electrons", "mobile ions", "polar molecules", "protons",
		domain.OptionB,
		"In the molten state the Na+ and Cl- ions are free to move and carry charge."),
	q("chem-005", "Acids and Bases",
		"Which of the following is a strong acid?",
		"Ethanoic acid", "Carbonic acid", "Citric acid", "Hydrochloric acid",
		domain.OptionD,
		"Hydrochloric acid ionizes completely in water; the others are weak acids that ionize only partially."),
	q("chem-006", "Acids and Bases",
		"The pH of 0.01 M hydrochloric acid is",
		"1", "2", "12", "0.01",
		domain.OptionB,
		"HCl is fully ionized, so [H+] = 0.01 M = 10^-2 M and pH = 2."),
	q("chem-007", "Acids and Bases",
		"Which salt is formed when dilute sulphuric acid reacts with sodium hydroxide?",
		"Sodium sulphide", "Sodium sulphite", "Sodium sulphate", "Sodium hydrogencarbonate",
		domain.OptionC,
		"Neutralization of sulphuric acid with sodium hydroxide gives sodium sulphate and water."),
	q("chem-008", "Redox Reactions",
		"In the reaction Zn + Cu2+ -> Zn2+ + Cu, the zinc atom",
		"is reduced", "is oxidized", "gains electrons", "acts as the oxidizing agent",
		domain.OptionB,
		"Zinc loses two electrons to form Zn2+, so it is oxidized and acts as the reducing agent."),
	q("chem-009", "Redox Reactions",
		"The oxidation number of chromium in the dichromate ion Cr2O7^2- is",
		"+3", "+6", "+7", "+12",
		domain.OptionB,
		"With oxygen at -2, 2x + 7(-2) = -2 gives x = +6."),
	q("chem-010", "Metals",
		"Which metal can be extracted from its oxide by heating alone?",
		"Iron", "Aluminium", "Mercury", "Calcium",
		domain.OptionC,
		"Mercury is low in the reactivity series; mercury(II) oxide decomposes on heating to give the metal."),
	q("chem-011", "Metals",
		"Rusting of iron requires the presence of",
		"oxygen only", "water only", "both oxygen and water", "carbon dioxide only",
		domain.OptionC,
		"Both air (oxygen) and water must be present for iron to rust."),
	q("chem-012", "Periodic Table",
		"Elements in the same group of the periodic table have the same",
		"number of occupied electron shells", "number of outermost shell electrons",
		"number of protons", "relative atomic mass",
		domain.OptionB,
		"Group members share the same outermost shell electron count, which gives similar chemical properties."),
	q("chem-013", "Periodic Table",
		"Which of the following is a property of group I metals?",
		"They are hard and dense", "They react with water to give hydrogen",
		"They form coloured compounds", "They are unreactive",
		domain.OptionB,
		"Alkali metals react with water to give the metal hydroxide and hydrogen gas."),
	q("chem-014", "Stoichiometry",
		"What is the number of moles of molecules in 8 g of oxygen gas? (O = 16.0)",
		"0.25", "0.5", "1", "2",
		domain.OptionA,
		"Molar mass of O2 is 32 g per mole, so 8 g is 8/32 = 0.25 mol."),
	q("chem-015", "Stoichiometry",
		"The empirical formula of a compound containing 80% carbon and 20% hydrogen by mass is (C = 12.0, H = 1.0)",
		"CH2", "CH3", "C2H5", "CH4",
		domain.OptionB,
		"Mole ratio C : H = 80/12 : 20/1 = 6.67 : 20 = 1 : 3, giving CH3."),
	q("chem-016", "Fossil Fuels",
		"Which fraction of petroleum has the lowest boiling range?",
		"Petrol", "Kerosene", "Diesel oil", "Liquefied petroleum gas",
		domain.OptionD,
		"LPG comes off the top of the fractionating tower with the smallest molecules and lowest boiling range."),
	q("chem-017", "Organic Chemistry",
		"Which of the following is the general formula of alkenes?",
		"CnH2n+2", "CnH2n", "CnH2n-2", "CnHn",
		domain.OptionB,
		"Alkenes contain one C=C double bond and follow CnH2n."),
	q("chem-018", "Organic Chemistry",
		"Bromine water is decolorized rapidly in the dark by",
		"methane", "ethane", "ethene", "benzene",
		domain.OptionC,
		"Ethene undergoes addition with bromine without light; alkanes need light for substitution."),
	q("chem-019", "Organic Chemistry",
		"The functional group of carboxylic acids is",
		"-OH", "-COOH", "-CHO", "-COO-",
		domain.OptionB,
		"Carboxylic acids carry the -COOH group, which gives their acidic properties."),
	q("chem-020", "Rates of Reaction",
		"Increasing the temperature of a reaction mixture increases the reaction rate mainly because",
		"the activation energy decreases", "more particles collide with energy above the activation energy",
		"the concentration of reactants increases", "the surface area of reactants increases",
		domain.OptionB,
		"Higher temperature raises the fraction of collisions with energy exceeding the activation energy."),
	q("chem-021", "Rates of Reaction",
		"A catalyst speeds up a reaction by",
		"raising the temperature", "increasing the concentration of products",
		"providing an alternative pathway of lower activation energy", "shifting the equilibrium position",
		domain.OptionC,
		"A catalyst offers an alternative reaction pathway with lower activation energy and is not consumed."),
	q("chem-022", "Chemical Equilibrium",
		"For the equilibrium N2(g) + 3H2(g) = 2NH3(g) (forward reaction exothermic), the yield of ammonia is increased by",
		"raising the temperature", "lowering the pressure", "raising the pressure", "adding a catalyst",
		domain.OptionC,
		"Higher pressure favours the side with fewer gas molecules; a catalyst changes the rate, not the position."),
	q("chem-023", "Electrolysis",
		"In the electrolysis of dilute sulphuric acid with platinum electrodes, the gas formed at the cathode is",
		"oxygen", "hydrogen", "sulphur dioxide", "ozone",
		domain.OptionB,
		"Hydrogen ions are discharged at the cathode to give hydrogen gas; oxygen forms at the anode."),
	q("chem-024", "Chemical Bonding",
		"Which pair of substances both conduct electricity in the solid state?",
		"Graphite and copper", "Diamond and copper", "Graphite and sodium chloride", "Sulphur and iron",
		domain.OptionA,
		"Graphite has delocalized electrons between layers and copper has a sea of metallic electrons; both conduct when solid."),
}
