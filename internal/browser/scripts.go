// internal/browser/scripts.go
package browser

// Injected page scripts. Both return plain JSON-serializable values whose
// keys line up with the api/schemas JSON tags, so chromedp.Evaluate can
// unmarshal straight into the schema types.

// scanScript enumerates candidate interactive elements together with the
// DOM neighborhood the naming heuristics need. Selects and their values are
// reported blank: a select's option text and current value describe its
// state, not its identity.
const scanScript = `(() => {
	const collapse = (s) => (s || '').replace(/\s+/g, ' ').trim();

	const cssPath = (el) => {
		if (el.id) return '#' + CSS.escape(el.id);
		const parts = [];
		let node = el;
		while (node && node.nodeType === 1 && node.tagName !== 'BODY') {
			if (node.id) {
				parts.unshift('#' + CSS.escape(node.id));
				return parts.join(' > ');
			}
			const parent = node.parentElement;
			let step = node.tagName.toLowerCase();
			if (parent) {
				const index = Array.prototype.indexOf.call(parent.children, node) + 1;
				step += ':nth-child(' + index + ')';
			}
			parts.unshift(step);
			node = parent;
		}
		parts.unshift('body');
		return parts.join(' > ');
	};

	const results = [];
	const seen = new Set();
	const candidates = document.querySelectorAll(
		'a, button, input, select, textarea, summary, [role], [onclick]');

	candidates.forEach((el) => {
		const selector = cssPath(el);
		if (seen.has(selector)) return;
		seen.add(selector);

		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		const visible = style.display !== 'none' && style.visibility !== 'hidden';

		const attrs = {};
		for (const a of el.attributes) attrs[a.name] = a.value;

		const tag = el.tagName.toLowerCase();

		let labelText = '';
		if (el.id) {
			const label = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
			if (label) labelText = collapse(label.textContent);
		}

		let prevText = '';
		for (let prev = el.previousSibling; prev; prev = prev.previousSibling) {
			if (prev.nodeType === 1) { prevText = collapse(prev.textContent); break; }
			if (prev.nodeType === 3 && prev.textContent.trim() !== '') {
				prevText = collapse(prev.textContent);
				break;
			}
		}

		const iconNodes = el.querySelectorAll('i, svg, img, span[class*="icon"]');
		const iconClasses = [];
		iconNodes.forEach((n) => {
			const cls = n.getAttribute('class');
			if (cls) cls.split(/\s+/).forEach((c) => { if (c) iconClasses.push(c); });
		});

		let position = 1;
		if (el.parentElement) {
			position = Array.prototype.indexOf.call(el.parentElement.children, el) + 1;
		}

		const isSelect = tag === 'select';
		results.push({
			tag: tag,
			attributes: attrs,
			text: isSelect ? '' : collapse(el.innerText),
			value: isSelect ? '' : (el.value || ''),
			label_text: labelText,
			prev_sibling_text: prevText,
			has_icon_child: iconNodes.length > 0,
			icon_classes: iconClasses,
			position: position,
			selector: selector,
			visible: visible,
			width: rect.width,
			height: rect.height,
			cursor: style.cursor,
			has_click_handler: !!(el.onclick || el.hasAttribute('onclick')),
		});
	});
	return results;
})()`

// snapshotScript captures the comparable page state: the visible body text
// and per-container item counts for tables, lists, and homogeneous card
// blocks. The URL is read separately through CDP.
const snapshotScript = `(() => {
	const counts = {};
	const keyFor = (el, i) => {
		let key = el.tagName.toLowerCase();
		if (el.id) return key + '#' + el.id;
		if (el.classList.length > 0) key += '.' + el.classList[0];
		return key + ':nth(' + i + ')';
	};

	document.querySelectorAll('table').forEach((t, i) => {
		counts[keyFor(t, i)] = t.querySelectorAll('tr').length;
	});
	document.querySelectorAll('ul, ol').forEach((l, i) => {
		counts[keyFor(l, i)] = l.querySelectorAll(':scope > li').length;
	});
	// Card grids: containers whose children all share the same class.
	document.querySelectorAll('div, section').forEach((el, i) => {
		const kids = el.children;
		if (kids.length < 3) return;
		const cls = kids[0].className;
		if (!cls || typeof cls !== 'string') return;
		if (Array.prototype.every.call(kids, (c) => c.className === cls)) {
			counts[keyFor(el, i)] = kids.length;
		}
	});

	return {
		text: document.body ? document.body.innerText : '',
		item_counts: counts,
	};
})()`

// linksScript collects href targets scoped to the navigation area, walking
// expanders and submenus as well as direct links.
const linksScript = `((navSelector) => {
	const hrefs = [];
	const seen = new Set();
	const push = (a) => {
		if (!a.href || seen.has(a.href)) return;
		seen.add(a.href);
		hrefs.push(a.href);
	};
	const scopes = navSelector ? document.querySelectorAll(navSelector) : [document];
	scopes.forEach((scope) => {
		scope.querySelectorAll('a[href]').forEach(push);
	});
	if (hrefs.length === 0) {
		document.querySelectorAll('a[href]').forEach(push);
	}
	return hrefs;
})`

// anchorIDsScript lists every element id so dangling fragment links can be
// verified.
const anchorIDsScript = `(() => {
	const ids = [];
	document.querySelectorAll('[id]').forEach((el) => ids.push(el.id));
	return ids;
})()`
